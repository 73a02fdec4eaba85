//go:build windows

package actions

func appCommand(name string) []string {
	// The empty argument is the window title expected by start.
	return []string{"cmd", "/C", "start", "", name}
}

func urlCommand(uri string) []string {
	return []string{"rundll32", "url.dll,FileProtocolHandler", uri}
}
