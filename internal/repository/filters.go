package repository

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// buildDonorFilter はDonorFilterをbsonの条件式に変換する。
// ListとCountが同一の条件式を共有するための唯一の変換点。
func buildDonorFilter(f DonorFilter) bson.M {
	filter := bson.M{}

	if f.BloodGroup != "" {
		filter["bloodGroup"] = f.BloodGroup
	}
	if f.Area != "" {
		filter["area"] = f.Area
	}
	if f.OnlyAvailable {
		filter["isAvailable"] = true
	}
	if !f.CreatedAfter.IsZero() {
		filter["createdAt"] = bson.M{"$gte": f.CreatedAfter}
	}

	return filter
}

// buildUserFilter はUserFilterをbsonの条件式に変換する。
// EmailContainsは正規表現メタ文字をエスケープした上で
// 大文字小文字を区別しない部分一致として扱う。
func buildUserFilter(f UserFilter) bson.M {
	filter := bson.M{}

	if f.EmailContains != "" {
		filter["email"] = primitive.Regex{
			Pattern: regexp.QuoteMeta(f.EmailContains),
			Options: "i",
		}
	}
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if !f.CreatedAfter.IsZero() {
		filter["createdAt"] = bson.M{"$gte": f.CreatedAfter}
	}

	return filter
}
