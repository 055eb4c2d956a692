package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/plateful/backend/internal/models"
	"gorm.io/gorm"
)

func newTestPostService(t *testing.T) (*PostService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewPostService(db), db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{
		Email:         email,
		FullName:      "Poster",
		HomeCity:      "Tel Aviv",
		AuthType:      "local",
		RefreshTokens: []string{},
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func TestPostCreate(t *testing.T) {
	svc, db := newTestPostService(t)
	user := createTestUser(t, db, "poster@test.local")

	post, err := svc.Create(&CreatePostRequest{
		Restaurant:  "Falafel Gabay",
		Description: "best in town",
		City:        "Tel Aviv",
	}, user.ID, "abc.jpg")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if post.ID == 0 {
		t.Error("created post should have an ID")
	}
	if post.UserID != user.ID {
		t.Errorf("UserID = %d, expected %d", post.UserID, user.ID)
	}
	if post.Image != "abc.jpg" {
		t.Errorf("Image = %q, expected abc.jpg", post.Image)
	}
}

func TestPostGetByID(t *testing.T) {
	svc, db := newTestPostService(t)
	user := createTestUser(t, db, "poster@test.local")

	created, err := svc.Create(&CreatePostRequest{Restaurant: "HaKosem", City: "Tel Aviv"}, user.ID, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	post, err := svc.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if post.Restaurant != "HaKosem" {
		t.Errorf("Restaurant = %q, expected HaKosem", post.Restaurant)
	}
	if post.User.Email != user.Email {
		t.Errorf("author should be preloaded, got %q", post.User.Email)
	}
}

func TestPostGetByID_NotFound(t *testing.T) {
	svc, _ := newTestPostService(t)

	_, err := svc.GetByID(9999)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("GetByID() error = %v, expected ErrPostNotFound", err)
	}
}

func TestPostList_Pagination(t *testing.T) {
	svc, db := newTestPostService(t)
	user := createTestUser(t, db, "poster@test.local")

	for i := 0; i < 5; i++ {
		_, err := svc.Create(&CreatePostRequest{
			Restaurant: fmt.Sprintf("Place %d", i),
			City:       "Haifa",
		}, user.ID, "")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	resp, err := svc.List(&PostListRequest{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if resp.Total != 5 {
		t.Errorf("Total = %d, expected 5", resp.Total)
	}
	if len(resp.Items) != 2 {
		t.Errorf("len(Items) = %d, expected 2", len(resp.Items))
	}

	last, err := svc.List(&PostListRequest{Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(last.Items) != 1 {
		t.Errorf("last page should have 1 item, got %d", len(last.Items))
	}
}

func TestPostList_CityFilter(t *testing.T) {
	svc, db := newTestPostService(t)
	user := createTestUser(t, db, "poster@test.local")

	cities := []string{"Haifa", "Tel Aviv", "Haifa"}
	for i, city := range cities {
		_, err := svc.Create(&CreatePostRequest{
			Restaurant: fmt.Sprintf("Place %d", i),
			City:       city,
		}, user.ID, "")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	resp, err := svc.List(&PostListRequest{City: "Haifa"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("Total = %d, expected 2", resp.Total)
	}
	for _, post := range resp.Items {
		if post.City != "Haifa" {
			t.Errorf("post %d has city %q, expected Haifa", post.ID, post.City)
		}
	}
}

func TestPostList_UserFilter(t *testing.T) {
	svc, db := newTestPostService(t)
	alice := createTestUser(t, db, "alice@test.local")
	bob := createTestUser(t, db, "bob@test.local")

	if _, err := svc.Create(&CreatePostRequest{Restaurant: "A", City: "Eilat"}, alice.ID, ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(&CreatePostRequest{Restaurant: "B", City: "Eilat"}, bob.ID, ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resp, err := svc.List(&PostListRequest{UserID: alice.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 1 || resp.Items[0].UserID != alice.ID {
		t.Errorf("expected only alice's post, got total=%d", resp.Total)
	}
}

func TestPostUpdate_OwnerOnly(t *testing.T) {
	svc, db := newTestPostService(t)
	owner := createTestUser(t, db, "owner@test.local")
	intruder := createTestUser(t, db, "intruder@test.local")

	post, err := svc.Create(&CreatePostRequest{Restaurant: "Old Name", City: "Eilat"}, owner.ID, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Update(post.ID, intruder.ID, &UpdatePostRequest{Restaurant: "Hijacked"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Update() by non-owner: error = %v, expected ErrNotOwner", err)
	}

	updated, err := svc.Update(post.ID, owner.ID, &UpdatePostRequest{Restaurant: "New Name"})
	if err != nil {
		t.Fatalf("Update() by owner: error = %v", err)
	}
	if updated.Restaurant != "New Name" {
		t.Errorf("Restaurant = %q, expected New Name", updated.Restaurant)
	}
	if updated.City != "Eilat" {
		t.Errorf("unset fields should be untouched, City = %q", updated.City)
	}
}

func TestPostDelete(t *testing.T) {
	svc, db := newTestPostService(t)
	owner := createTestUser(t, db, "owner@test.local")
	intruder := createTestUser(t, db, "intruder@test.local")

	post, err := svc.Create(&CreatePostRequest{Restaurant: "Doomed", City: "Eilat"}, owner.ID, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.AddComment(post.ID, owner.ID, &AddCommentRequest{Body: "rip"}); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	if err := svc.Delete(post.ID, intruder.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Delete() by non-owner: error = %v, expected ErrNotOwner", err)
	}

	if err := svc.Delete(post.ID, owner.ID); err != nil {
		t.Fatalf("Delete() by owner: error = %v", err)
	}

	if _, err := svc.GetByID(post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("deleted post should be gone, got %v", err)
	}

	var count int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	if count != 0 {
		t.Errorf("comments should be deleted with the post, found %d", count)
	}
}

func TestPostAddComment_Ordering(t *testing.T) {
	svc, db := newTestPostService(t)
	user := createTestUser(t, db, "commenter@test.local")

	post, err := svc.Create(&CreatePostRequest{Restaurant: "Chatty", City: "Eilat"}, user.ID, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	bodies := []string{"first", "second", "third"}
	var comments []models.Comment
	for _, body := range bodies {
		comments, err = svc.AddComment(post.ID, user.ID, &AddCommentRequest{Body: body})
		if err != nil {
			t.Fatalf("AddComment(%q) error = %v", body, err)
		}
	}

	if len(comments) != len(bodies) {
		t.Fatalf("len(comments) = %d, expected %d", len(comments), len(bodies))
	}
	for i, body := range bodies {
		if comments[i].Body != body {
			t.Errorf("comments[%d].Body = %q, expected %q", i, comments[i].Body, body)
		}
	}
}

func TestPostAddComment_PostNotFound(t *testing.T) {
	svc, db := newTestPostService(t)
	user := createTestUser(t, db, "commenter@test.local")

	_, err := svc.AddComment(9999, user.ID, &AddCommentRequest{Body: "hello?"})
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("AddComment() error = %v, expected ErrPostNotFound", err)
	}
}
