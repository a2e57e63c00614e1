// Package discovery finds Ethernet inertial units on the local network over
// mDNS.
//
// Units with an Ethernet port run a web interface and advertise it as an
// "_http._tcp" service under a hostname made of the product family and the
// serial number, for example "ekinox-045000123.local". The scanner browses
// that service type, keeps the entries whose hostname matches a known family
// and reports where to send sbgECom frames over UDP.
//
//	devices, err := discovery.ScanForDevices(5 * time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, d := range devices {
//	    fmt.Println(d, d.UDPAddr())
//	}
//
// Discovery needs multicast on the interface and UDP port 5353 open.
package discovery
