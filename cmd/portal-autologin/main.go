/*
Portal-autologin keeps a machine behind a Sophos captive portal online by
logging in again whenever the internet becomes unreachable.
*/
package main

import "github.com/telekom-mms/portal-autologin/internal/daemon"

func main() {
	daemon.Run()
}
