//go:build !unix

package echo

import "net"

func listenConfig() net.ListenConfig {
	return net.ListenConfig{}
}
