package db

// Node is a raw row of the org-roam nodes table. Text columns are stored by
// org-roam as printed elisp strings, so values usually arrive wrapped in
// double quotes; internal/index strips them.
type Node struct {
	ID    string `json:"id"`
	File  string `json:"file"`
	Level int    `json:"level"` // 0 for file-level nodes, >0 for headings
	Title string `json:"title"`
}
