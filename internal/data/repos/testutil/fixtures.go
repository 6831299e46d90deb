package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: "Test Learner",
		Password:    "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse creates a published course whose modules hold the given sub-course counts.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, subCounts ...int) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:        uuid.New(),
		Title:     title,
		Category:  "finance",
		Published: true,
		Modules:   datatypes.NewJSONType(BuildModules(subCounts...)),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

// BuildModules names modules m1..mN and their sub-courses s1..sK.
func BuildModules(subCounts ...int) []types.CourseModule {
	mods := make([]types.CourseModule, 0, len(subCounts))
	for i, n := range subCounts {
		m := types.CourseModule{ID: fmt.Sprintf("m%d", i+1), Title: fmt.Sprintf("Module %d", i+1)}
		for j := 0; j < n; j++ {
			m.SubCourses = append(m.SubCourses, types.SubCourse{ID: fmt.Sprintf("s%d", j+1), Title: fmt.Sprintf("Lesson %d", j+1)})
		}
		mods = append(mods, m)
	}
	return mods
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrString(v string) *string { return &v }
