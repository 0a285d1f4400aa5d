// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import "fmt"

// Object Store key layout, the stable external contract spec §4.6 names
// for the render layer.
func metaKey(archiveID int64) string       { return fmt.Sprintf("archives/%d/meta.json", archiveID) }
func fetchKey(archiveID int64, name string) string {
	return fmt.Sprintf("archives/%d/fetch/%s", archiveID, name)
}
func renderKey(archiveID int64, name string) string {
	return fmt.Sprintf("archives/%d/render/%s", archiveID, name)
}
func textKey(archiveID int64) string { return fmt.Sprintf("archives/%d/text/extracted.txt", archiveID) }
func mediaKey(archiveID int64, name string) string {
	return fmt.Sprintf("archives/%d/media/%s", archiveID, name)
}
func videoKey(videoID, ext string) string    { return fmt.Sprintf("videos/%s.%s", videoID, ext) }
func videoInfoKey(videoID string) string     { return fmt.Sprintf("videos/%s.json", videoID) }
