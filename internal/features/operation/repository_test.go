package operation

import (
	"reflect"
	"regexp"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildListQuery(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter ListFilter
		want   bson.M
	}{
		{
			name:   "empty filter matches everything",
			filter: ListFilter{},
			want:   bson.M{},
		},
		{
			name:   "status equality",
			filter: ListFilter{Status: "failed"},
			want:   bson.M{"status": "failed"},
		},
		{
			name:   "type and creator",
			filter: ListFilter{Type: "inspector_import", CreatedBy: "u1"},
			want:   bson.M{"type": "inspector_import", "created_by": "u1"},
		},
		{
			name:   "date range",
			filter: ListFilter{DateFrom: &from, DateTo: &to},
			want:   bson.M{"created_at": bson.M{"$gte": from, "$lte": to}},
		},
		{
			name:   "open-ended date range",
			filter: ListFilter{DateFrom: &from},
			want:   bson.M{"created_at": bson.M{"$gte": from}},
		},
		{
			name:   "search over type and description",
			filter: ListFilter{Search: "import"},
			want: bson.M{"$or": []bson.M{
				{"type": bson.M{"$regex": primitive.Regex{Pattern: "import", Options: "i"}}},
				{"description": bson.M{"$regex": primitive.Regex{Pattern: "import", Options: "i"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildListQuery(tt.filter)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildListQuery() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildListQueryEscapesRegexMeta(t *testing.T) {
	got := buildListQuery(ListFilter{Search: "a.b*c"})

	or, ok := got["$or"].([]bson.M)
	if !ok || len(or) == 0 {
		t.Fatalf("expected $or clause, got %v", got)
	}

	pattern := or[0]["type"].(bson.M)["$regex"].(primitive.Regex).Pattern
	if pattern != regexp.QuoteMeta("a.b*c") {
		t.Errorf("pattern = %q, user input not escaped", pattern)
	}
}
