package client

import (
	"fmt"
	"strconv"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type File struct {
	ID       string      `json:"id"`
	UserID   string      `json:"userId"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	IsPublic bool        `json:"isPublic"`
	ParentID interface{} `json:"parentId"`
}

// Parent returns parentId as a string; root is "0".
func (f File) Parent() string {
	switch v := f.ParentID.(type) {
	case nil:
		return "0"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (f File) IsFolder() bool {
	return f.Type == "folder"
}

type CreateFileRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID string `json:"parentId,omitempty"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data,omitempty"`
}

type Content struct {
	ContentType string
	Data        []byte
}
