// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds the table and column names of every Postgres relation,
// so queries never hard-code identifiers twice.
package schema

import "strings"

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table       string
	ID          string
	Email       string
	Password    string
	DisplayName string
	AvatarURL   string
	Tier        string
	CreatedAt   string
	UpdatedAt   string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:       "users.account",
	ID:          "id",
	Email:       "email",
	Password:    "passwordhash",
	DisplayName: "displayname",
	AvatarURL:   "avatarurl",
	Tier:        "tier",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.DisplayName, t.AvatarURL,
		t.Tier, t.CreatedAt, t.UpdatedAt,
	}
}

// Select returns the column list joined for a SELECT or RETURNING clause.
func Select(columns []string) string {
	return strings.Join(columns, ", ")
}
