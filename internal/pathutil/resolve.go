// Package pathutil lets CLI users name records by folder path instead of id.
package pathutil

import (
	"fmt"
	"strings"

	"github.com/filesmanager/backend/internal/client"
	"github.com/filesmanager/backend/pkg/utils"
)

// Lister is the slice of the API client that Resolve walks with.
type Lister interface {
	ListFiles(parentID string, page int) ([]client.File, error)
}

// Resolve converts a path such as "/docs/reports/q1.pdf" to the id of its final
// segment by listing folders from root. "", "/" and "." mean root and resolve
// to "". Anything not starting with "/" is taken to be an id already.
func Resolve(lister Lister, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "/" || path == "." {
		return "", nil
	}
	if !strings.HasPrefix(path, "/") {
		return path, nil
	}

	currentID := ""
	walked := ""
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}
		child, err := findChild(lister, currentID, segment)
		if err != nil {
			return "", fmt.Errorf("listing %q: %w", walked+"/", err)
		}
		if child == nil {
			if currentID == "" {
				return "", fmt.Errorf("not found in root: %s", segment)
			}
			return "", fmt.Errorf("not found in %s: %s", walked, segment)
		}
		walked += "/" + child.Name
		currentID = child.ID
	}
	return currentID, nil
}

// findChild pages through parentID's listing. Exact names win over
// case-insensitive matches.
func findChild(lister Lister, parentID, name string) (*client.File, error) {
	var folded *client.File
	for page := 0; ; page++ {
		children, err := lister.ListFiles(parentID, page)
		if err != nil {
			return nil, err
		}
		for i := range children {
			if children[i].Name == name {
				return &children[i], nil
			}
			if folded == nil && strings.EqualFold(children[i].Name, name) {
				f := children[i]
				folded = &f
			}
		}
		if len(children) < utils.PageSize {
			return folded, nil
		}
	}
}
