// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"bufio"
	"os"
	"strings"

	"forumvault/internal/capture/browser"
)

// loadBrowserCookies parses the Netscape cookie-jar file format shared
// with the video/gallery capturers' --cookies flag (spec §6.4 "cookies")
// into the cookie set the browser-capture capability seeds before
// navigation. A missing or unreadable file yields no cookies rather than
// an error: cookies are an optional authentication aid, not a
// precondition for archiving.
func loadBrowserCookies(path string) []*browser.Cookie {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var cookies []*browser.Cookie
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		cookies = append(cookies, &browser.Cookie{
			Domain: fields[0],
			Path:   fields[2],
			Name:   fields[5],
			Value:  fields[6],
		})
	}
	return cookies
}
