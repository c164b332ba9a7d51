package ports

// TopTCP is the nmap top-100 TCP port list (99 entries once the duplicate
// 8443 is dropped). It is not the top-1000 table. Sorted ascending, no duplicates.
var TopTCP = []uint16{
	21, 22, 23, 25, 26, 53, 80, 81, 110, 111,
	113, 135, 139, 143, 179, 199, 443, 445, 465, 514,
	515, 548, 554, 587, 631, 636, 646, 993, 995, 1025,
	1026, 1027, 1028, 1029, 1080, 1110, 1433, 1443, 1720, 1723,
	1755, 1900, 2000, 2001, 2049, 2082, 2083, 2086, 2087, 2121,
	2717, 3000, 3128, 3306, 3389, 3986, 4443, 4899, 5000, 5009,
	5051, 5060, 5101, 5190, 5357, 5432, 5631, 5666, 5800, 5900,
	6000, 6001, 6379, 6443, 6646, 7070, 8000, 8008, 8009, 8080,
	8081, 8443, 8880, 8888, 9090, 9100, 9200, 9443, 9999, 10000,
	27017, 27018, 32768, 49152, 49153, 49154, 49155, 49156, 49157,
}

// Default returns a copy of TopTCP, safe for the caller to modify.
func Default() []uint16 {
	out := make([]uint16, len(TopTCP))
	copy(out, TopTCP)
	return out
}
