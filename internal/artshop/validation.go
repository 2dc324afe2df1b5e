package artshop

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/koopa0/artshop/pkg/errors"
)

// 驗證限制
const (
	// MaxBulkOperationSize 單次批次新增的上限
	MaxBulkOperationSize = 100

	// MaxNameLength 藝術家姓名每個欄位的長度上限（字元數）
	MaxNameLength = 60

	// MaxClassificationNameLength 分類名稱長度上限
	MaxClassificationNameLength = 100

	// MinPatchYear 部分更新時允許的最小年份
	MinPatchYear = 1000
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// checkBulkSize 例：checkBulkSize(n, "Artist", "artists")
func checkBulkSize(n int, label, plural string) error {
	if n == 0 {
		return apperrors.InvalidInput("%s list cannot be null or empty", label)
	}
	if n > MaxBulkOperationSize {
		return apperrors.InvalidInput("Cannot add more than %d %s at once", MaxBulkOperationSize, plural)
	}
	return nil
}

// validateArtistNames 至少需要名或姓，且每個欄位不超過 MaxNameLength 字元
func validateArtistNames(firstName, middleName, lastName string) error {
	if blank(firstName) && blank(lastName) {
		return apperrors.InvalidInput("Artist must have at least first name or last name")
	}

	fields := []struct {
		label string
		value string
	}{
		{"First name", firstName},
		{"Middle name", middleName},
		{"Last name", lastName},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > MaxNameLength {
			return apperrors.InvalidInput("%s must be %d characters or less", f.label, MaxNameLength)
		}
	}
	return nil
}

func validateClassification(c Classification) error {
	if blank(c.Name) {
		return apperrors.InvalidInput("Classification name is required")
	}
	if blank(c.Description) {
		return apperrors.InvalidInput("Classification description is required")
	}
	if utf8.RuneCountInString(c.Name) > MaxClassificationNameLength {
		return apperrors.InvalidInput("Classification name must be %d characters or less", MaxClassificationNameLength)
	}
	return nil
}

// validateArt 驗證新增或整筆更新的藝術品
func validateArt(a Art) error {
	if blank(a.Title) {
		return apperrors.InvalidInput("Art title is required")
	}
	if a.Year != nil && *a.Year > time.Now().Year() {
		return apperrors.InvalidInput("Year cannot be in the future")
	}

	// 只帶 ID 的嵌入實體引用既有資料，不需驗證內容
	if c := a.Classification; c != nil && c.ID == 0 {
		if err := validateClassification(*c); err != nil {
			return err
		}
	}
	for _, artist := range a.Artists {
		if artist.ID != 0 {
			continue
		}
		if err := validateArtistNames(artist.FirstName, artist.MiddleName, artist.LastName); err != nil {
			return err
		}
	}
	return nil
}

func validateArtPatch(p ArtPatch) error {
	if !p.HasUpdates() {
		return apperrors.InvalidInput("No fields to update")
	}
	if p.Title != nil && blank(*p.Title) {
		return apperrors.InvalidInput("Title cannot be empty")
	}
	if p.Year != nil {
		if *p.Year < MinPatchYear {
			return apperrors.InvalidInput("Year must be greater than %d", MinPatchYear)
		}
		if *p.Year > time.Now().Year() {
			return apperrors.InvalidInput("Year cannot be in the future")
		}
	}
	if p.ClassificationID != nil && *p.ClassificationID <= 0 {
		return apperrors.InvalidInput("Invalid classification id: %d", *p.ClassificationID)
	}
	return nil
}
