package repository

import (
	"strconv"
	"strings"

	"qipu/internal/models"

	"gorm.io/gorm"
)

// TagFilter is the parsed form of a `tag` query parameter.
type TagFilter struct {
	// Present is true when the parameter carried a non-empty value, even if
	// no token survived parsing.
	Present bool
	IDs     []uint
}

// ParseTagFilter splits raw on commas and keeps tokens made only of ASCII
// digits. Anything else is dropped without error.
func ParseTagFilter(raw string) TagFilter {
	if raw == "" {
		return TagFilter{}
	}
	f := TagFilter{Present: true, IDs: []uint{}}
	for _, tok := range strings.Split(raw, ",") {
		if !isDigits(tok) {
			continue
		}
		id, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			continue
		}
		f.IDs = append(f.IDs, uint(id))
	}
	return f
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ownedAndTagged scopes table rows to owner and, when the filter is present,
// to rows joined to at least one of its tags through joinTable.fk. Using a
// subquery keeps each row once however many tags match.
func ownedAndTagged(table, joinTable, fk string, owner uint, f TagFilter) Scope {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where(table+".user_id = ?", owner)
		if !f.Present {
			return db
		}
		if len(f.IDs) == 0 {
			return db.Where("1 = 0")
		}
		sub := db.Session(&gorm.Session{NewDB: true}).
			Table(joinTable).
			Select(fk).
			Where("tag_id IN ?", f.IDs)
		return db.Where(table+".id IN (?)", sub)
	}
}

// checkTagsExist fails with a NotFound error naming the first missing tag.
func checkTagsExist(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var found []uint
	if err := tx.Model(&models.Tag{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return models.NewInternalError(err)
	}
	have := make(map[uint]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	for _, id := range ids {
		if !have[id] {
			return models.NewNotFoundError("Tag", id)
		}
	}
	return nil
}

// uniqueIDs drops duplicates while keeping order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
