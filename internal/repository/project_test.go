package repository

import (
	"context"
	"testing"

	"projectmanager/internal/model"
)

func TestProjectCreateGetRoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	repo := NewProjectRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, user.ID, "Demo", "x")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected a server-assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected a server-assigned creation timestamp")
	}

	got, err := repo.Get(ctx, user.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Demo" || got.Description != "x" {
		t.Errorf("got title=%q description=%q, want Demo/x", got.Title, got.Description)
	}
}

func TestProjectListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	repo := NewProjectRepository(db)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := repo.Create(ctx, user.ID, title, ""); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}

	projects, err := repo.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("got %d projects, want 3", len(projects))
	}
	for i, want := range []string{"third", "second", "first"} {
		if projects[i].Title != want {
			t.Errorf("projects[%d].Title = %q, want %q", i, projects[i].Title, want)
		}
	}
}

func TestProjectOwnershipGate(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	repo := NewProjectRepository(db)
	ctx := context.Background()

	project, err := repo.Create(ctx, alice.ID, "Secret", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Bob knows the id, but the record must look nonexistent to him.
	if _, err := repo.Get(ctx, bob.ID, project.ID); err != model.ErrProjectNotFound {
		t.Errorf("Get as bob: got %v, want ErrProjectNotFound", err)
	}

	projects, err := repo.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list as bob: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("bob sees %d projects, want 0", len(projects))
	}

	deleted, err := repo.Delete(ctx, bob.ID, project.ID)
	if err != nil {
		t.Fatalf("delete as bob: %v", err)
	}
	if deleted {
		t.Error("bob deleted alice's project")
	}

	if _, err := repo.Get(ctx, alice.ID, project.ID); err != nil {
		t.Errorf("project should still exist for alice: %v", err)
	}
}

func TestProjectDeleteCascadesToTasks(t *testing.T) {
	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	project, err := projects.Create(ctx, alice.ID, "Trip", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	task, err := tasks.Create(ctx, alice.ID, project.ID, "Pack bags", nil, false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	deleted, err := projects.Delete(ctx, alice.ID, project.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("delete reported no match")
	}

	remaining, err := tasks.List(ctx, alice.ID, project.ID, nil, "")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("got %d tasks after cascade, want 0", len(remaining))
	}
	if _, err := tasks.Get(ctx, alice.ID, task.ID); err != model.ErrTaskNotFound {
		t.Errorf("Get task after cascade: got %v, want ErrTaskNotFound", err)
	}

	// A second delete matches nothing and is not an error.
	deleted, err = projects.Delete(ctx, alice.ID, project.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Error("second delete reported a match")
	}
}
