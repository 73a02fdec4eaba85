//go:build darwin

package actions

func appCommand(name string) []string {
	return []string{"open", "-a", name}
}

func urlCommand(uri string) []string {
	return []string{"open", uri}
}
