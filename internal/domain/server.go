package domain

import "time"

type ServerType string

const (
	ServerTypeDynamic ServerType = "DYNAMIC"
	ServerTypeStatic  ServerType = "STATIC"
)

// IsStatic reports whether servers of this type are anchored by display name.
// Anything that is not explicitly DYNAMIC counts as static.
func (t ServerType) IsStatic() bool {
	return t != ServerTypeDynamic
}

type Server struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      ServerType `json:"type"`
	Group     string     `json:"group,omitempty"`
	Status    string     `json:"status,omitempty"`
	Players   int        `json:"players,omitempty"`
	CreatedAt time.Time  `json:"createdAt,omitzero"`
}

type Group struct {
	Name         string     `json:"name"`
	Type         ServerType `json:"type"`
	MinServers   int        `json:"minServers"`
	MaxServers   int        `json:"maxServers"`
	ServerCount  int        `json:"serverCount"`
	TemplatePath string     `json:"templatePath,omitempty"`
}

type FileInfo struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	IsDirectory bool      `json:"isDirectory"`
	ModifiedAt  time.Time `json:"modifiedAt,omitzero"`
}
