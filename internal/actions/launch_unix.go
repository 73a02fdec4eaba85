//go:build !darwin && !windows

package actions

func appCommand(name string) []string {
	return []string{name}
}

func urlCommand(uri string) []string {
	return []string{"xdg-open", uri}
}
