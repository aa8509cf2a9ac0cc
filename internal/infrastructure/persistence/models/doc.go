// Package models contains the GORM persistence models of the fleet and expiry tables.
// Models carry all ORM tags and convert to the tag-free domain records in
// internal/domain/expiry through ToDomain and FromDomain.
package models
