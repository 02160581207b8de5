// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// DownloadGrantTable represents the 'download.grant' table
type DownloadGrantTable struct {
	Table      string
	ID         string
	IdentityID string
	SongID     string
	CreatedAt  string
	ExpiresAt  string
	Used       string
	UsedAt     string
}

// DownloadGrant is the schema definition for download.grant
var DownloadGrant = DownloadGrantTable{
	Table:      "download.grant",
	ID:         "id",
	IdentityID: "identityid",
	SongID:     "songid",
	CreatedAt:  "createdat",
	ExpiresAt:  "expiresat",
	Used:       "used",
	UsedAt:     "usedat",
}

func (t DownloadGrantTable) Columns() []string {
	return []string{t.ID, t.IdentityID, t.SongID, t.CreatedAt, t.ExpiresAt, t.Used, t.UsedAt}
}
