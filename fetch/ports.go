package fetch

import "strconv"

// blockedPorts is the WHATWG Fetch "bad port" list
// (https://fetch.spec.whatwg.org/#port-blocking): a request to any of
// these is refused before dispatch, since they're reserved for protocols
// a same-origin policy bypass could abuse (mail relays, directory
// services, IRC, etc).
var blockedPorts = [83]uint16{
	0, 1, 7, 9, 11, 13, 15, 17, 19, 20, 21, 22, 23, 25, 37, 42, 43, 53, 69, 77, 79, 87, 95, 101,
	102, 103, 104, 109, 110, 111, 113, 115, 117, 119, 123, 135, 137, 139, 143, 161, 179, 389, 427,
	465, 512, 513, 514, 515, 526, 530, 531, 532, 540, 548, 554, 556, 563, 587, 601, 636, 989, 990,
	993, 995, 1719, 1720, 1723, 2049, 3659, 4045, 4190, 5060, 5061, 6000, 6566, 6665, 6666, 6667,
	6668, 6669, 6679, 6697, 10080,
}

var blockedPortSet = func() map[uint16]bool {
	m := make(map[uint16]bool, len(blockedPorts))
	for _, p := range blockedPorts {
		m[p] = true
	}
	return m
}()

// isBlockedPort reports whether port (decimal string, as from
// url.URL.Port()) is on the blocked-port list. An empty port (scheme
// default) is never blocked.
func isBlockedPort(port string) bool {
	if port == "" {
		return false
	}
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return false
	}
	return blockedPortSet[uint16(n)]
}
