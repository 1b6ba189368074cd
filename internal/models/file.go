package models

import "strings"

type FileType string

const (
	FileTypeFolder FileType = "folder"
	FileTypeFile   FileType = "file"
	FileTypeImage  FileType = "image"
)

// RootParentID is the parentId of entries at the top of a user's tree.
const RootParentID = "0"

// ParseFileType reports whether raw names one of the known entry types.
func ParseFileType(raw string) (FileType, bool) {
	switch t := FileType(raw); t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return t, true
	default:
		return "", false
	}
}

// File is a FileRecord: a folder, or a leaf whose payload lives in blob storage.
// LocalPath is nil for folders and set for every other type; use NewFolder and
// NewBlob to build records so that pairing holds.
type File struct {
	BaseModel
	UserID    string   `json:"userId" gorm:"type:uuid;not null;index:idx_files_owner_parent,priority:1"`
	Name      string   `json:"name" gorm:"type:varchar(255);not null"`
	Type      FileType `json:"type" gorm:"type:varchar(16);not null"`
	IsPublic  bool     `json:"isPublic" gorm:"not null;default:false"`
	ParentID  string   `json:"parentId" gorm:"type:varchar(64);not null;default:'0';index:idx_files_owner_parent,priority:2"`
	LocalPath *string  `json:"-" gorm:"type:text"`
	// Seq is the insertion order assigned by the SQL store; listings sort on it.
	Seq int64 `json:"-" gorm:"not null;default:0;index"`
}

func (File) TableName() string {
	return "files"
}

// FileSequence is the counter row that hands out File.Seq values.
type FileSequence struct {
	Name  string `gorm:"type:varchar(32);primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

func (FileSequence) TableName() string {
	return "file_sequences"
}

// FileSequenceName keys the counter row for the files table.
const FileSequenceName = "files"

func NewFolder(userID, name, parentID string, isPublic bool) *File {
	return &File{
		UserID:   userID,
		Name:     name,
		Type:     FileTypeFolder,
		IsPublic: isPublic,
		ParentID: normalizeParent(parentID),
	}
}

// NewBlob builds a non-folder record. typ must be FileTypeFile or FileTypeImage.
func NewBlob(userID, name string, typ FileType, parentID string, isPublic bool, localPath string) *File {
	return &File{
		UserID:    userID,
		Name:      name,
		Type:      typ,
		IsPublic:  isPublic,
		ParentID:  normalizeParent(parentID),
		LocalPath: &localPath,
	}
}

func (f *File) IsFolder() bool {
	return f.Type == FileTypeFolder
}

// BlobPath returns the storage path of a non-folder record.
func (f *File) BlobPath() (string, bool) {
	if f.IsFolder() || f.LocalPath == nil || *f.LocalPath == "" {
		return "", false
	}
	return *f.LocalPath, true
}

func (f *File) AtRoot() bool {
	return f.ParentID == RootParentID
}

// FileView is the JSON shape of a record on the HTTP surface. parentId is the
// number 0 for root entries and the parent's id string otherwise.
type FileView struct {
	ID       string      `json:"id"`
	UserID   string      `json:"userId"`
	Name     string      `json:"name"`
	Type     FileType    `json:"type"`
	IsPublic bool        `json:"isPublic"`
	ParentID interface{} `json:"parentId"`
}

func (f *File) View() FileView {
	view := FileView{
		ID:       f.ID,
		UserID:   f.UserID,
		Name:     f.Name,
		Type:     f.Type,
		IsPublic: f.IsPublic,
		ParentID: f.ParentID,
	}
	if f.AtRoot() {
		view.ParentID = 0
	}
	return view
}

func Views(files []File) []FileView {
	views := make([]FileView, 0, len(files))
	for i := range files {
		views = append(views, files[i].View())
	}
	return views
}

func normalizeParent(parentID string) string {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return RootParentID
	}
	return parentID
}
