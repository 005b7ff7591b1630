package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nmehta6/socialdesk/internal/models"
)

func connectionColumns() []string {
	return []string{"id", "user_id", "fb_page_id", "ig_account_id", "access_token",
		"token_expiry", "refreshed_at", "created_at", "updated_at"}
}

func TestGetByUserAndPage_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	pageID := "page-123"
	mock.ExpectQuery("SELECT (.+) FROM social_connections").
		WithArgs("user-1", pageID).
		WillReturnRows(sqlmock.NewRows(connectionColumns()).
			AddRow(int64(7), "user-1", pageID, nil, "tok", now.Add(time.Hour), nil, now, now))

	repo := NewSocialConnectionRepository(db)
	sc, found, err := repo.GetByUserAndPage(context.Background(), "user-1", pageID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected row to be found")
	}
	if sc.ID != 7 || sc.FBPageID == nil || *sc.FBPageID != pageID {
		t.Errorf("unexpected row: %+v", sc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetByUserAndPage_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM social_connections").
		WithArgs("user-1", "missing").
		WillReturnRows(sqlmock.NewRows(connectionColumns()))

	repo := NewSocialConnectionRepository(db)
	sc, found, err := repo.GetByUserAndPage(context.Background(), "user-1", "missing")
	if err != nil {
		t.Fatalf("expected nil error on no rows, got %v", err)
	}
	if found || sc != nil {
		t.Errorf("expected (nil, false), got (%+v, %v)", sc, found)
	}
}

func TestCreate_ReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	igID := "ig-42"
	expiry := time.Now().Add(60 * 24 * time.Hour)
	mock.ExpectQuery("INSERT INTO social_connections").
		WithArgs("user-1", nil, "ig-42", "tok", expiry).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	repo := NewSocialConnectionRepository(db)
	id, err := repo.Create(context.Background(), &models.SocialConnection{
		UserID:      "user-1",
		IGAccountID: &igID,
		AccessToken: "tok",
		TokenExpiry: expiry,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 11 {
		t.Errorf("expected id 11, got %d", id)
	}
}

func TestUpdateToken_SetsRefreshedAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expiry := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE social_connections").
		WithArgs(int64(7), "new-tok", expiry).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSocialConnectionRepository(db)
	if err := repo.UpdateToken(context.Background(), 7, "new-tok", expiry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateToken_NoRowAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	expiry := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE social_connections").
		WithArgs(int64(99), "new-tok", expiry).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSocialConnectionRepository(db)
	if err := repo.UpdateToken(context.Background(), 99, "new-tok", expiry); err == nil {
		t.Fatal("expected error when no row is updated")
	}
}

func TestListExpiring(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	from := now
	to := now.Add(30 * time.Minute)
	pageID := "page-1"
	mock.ExpectQuery("SELECT (.+) FROM social_connections").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(connectionColumns()).
			AddRow(int64(1), "user-1", pageID, nil, "tok", now.Add(10*time.Minute), nil, now, now).
			AddRow(int64(2), "user-2", nil, "ig-1", "tok2", now.Add(-time.Minute), nil, now, now))

	repo := NewSocialConnectionRepository(db)
	list, err := repo.ListExpiring(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(list))
	}
	if list[0].Provider() != "facebook" || list[1].Provider() != "instagram" {
		t.Errorf("unexpected providers: %s, %s", list[0].Provider(), list[1].Provider())
	}
}
