// Package models holds the GORM rows behind the repositories. Each row
// converts to and from its domain type with ToDomain and FromDomain; the
// domain packages never see gorm tags.
//
// Tags mirror the SQL migrations, so AutoMigrate builds an equivalent schema
// for SQLite test databases.
package models
