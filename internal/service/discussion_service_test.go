package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

func TestDiscussionCommentNotifications(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewDiscussionService(
		repository.NewDiscussionRepository(db),
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		testValidator(),
		testLogger(),
	)
	ctx := context.Background()

	instructor, instructorActor := seedUser(t, db, "instructor", models.UserStatusActive)
	alice, aliceActor := seedUser(t, db, "student", models.UserStatusActive)
	bob, bobActor := seedUser(t, db, "student", models.UserStatusActive)
	carol, _ := seedUser(t, db, "student", models.UserStatusActive)
	_, outsider := seedUser(t, db, "student", models.UserStatusActive)
	course := seedApprovedCourse(t, db, instructor.ID)
	seedEnrollment(t, db, alice.ID, course.ID)
	seedEnrollment(t, db, bob.ID, course.ID)

	_, err := svc.CreatePost(ctx, outsider, course.ID, dto.DiscussionPostCreateRequest{Title: "Hello", Content: "hello"})
	requireStatus(t, err, http.StatusForbidden)

	post, err := svc.CreatePost(ctx, aliceActor, course.ID, dto.DiscussionPostCreateRequest{
		Title:   "Week 1 <b>questions</b>",
		Content: "Anyone stuck? <script>alert(1)</script> @" + alice.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "Week 1 questions", post.Entity.Title)
	require.NotContains(t, post.Entity.Content, "<script>")
	require.Empty(t, post.Events, "self mentions are not notified")

	comment, err := svc.CreateComment(ctx, bobActor, post.Entity.ID, dto.DiscussionCommentCreateRequest{
		Content: "Ask @" + carol.ID,
	})
	require.NoError(t, err)
	require.Len(t, comment.Events, 2)
	require.Equal(t, alice.ID, comment.Events[0].UserID)
	require.Equal(t, models.NotificationComment, comment.Events[0].Type)
	require.Equal(t, carol.ID, comment.Events[1].UserID)
	require.Equal(t, models.NotificationMention, comment.Events[1].Type)

	parentID := comment.Entity.ID
	reply, err := svc.CreateComment(ctx, aliceActor, post.Entity.ID, dto.DiscussionCommentCreateRequest{
		Content:  "thanks",
		ParentID: &parentID,
	})
	require.NoError(t, err)
	require.Len(t, reply.Events, 1)
	require.Equal(t, bob.ID, reply.Events[0].UserID)
	require.Equal(t, models.NotificationReply, reply.Events[0].Type)

	pinned := true
	_, err = svc.UpdatePost(ctx, aliceActor, post.Entity.ID, dto.DiscussionPostUpdateRequest{IsPinned: &pinned})
	requireStatus(t, err, http.StatusForbidden)

	updated, err := svc.UpdatePost(ctx, instructorActor, post.Entity.ID, dto.DiscussionPostUpdateRequest{IsPinned: &pinned})
	require.NoError(t, err)
	require.True(t, updated.IsPinned)

	err = svc.DeleteComment(ctx, aliceActor, comment.Entity.ID)
	requireStatus(t, err, http.StatusForbidden)

	thread, err := svc.GetPost(ctx, bobActor, post.Entity.ID)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 2)
}

func TestDiscussionLikeToggle(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewDiscussionService(
		repository.NewDiscussionRepository(db),
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		testValidator(),
		testLogger(),
	)
	ctx := context.Background()

	instructor, instructorActor := seedUser(t, db, "instructor", models.UserStatusActive)
	student, studentActor := seedUser(t, db, "student", models.UserStatusActive)
	course := seedApprovedCourse(t, db, instructor.ID)
	seedEnrollment(t, db, student.ID, course.ID)

	post, err := svc.CreatePost(ctx, instructorActor, course.ID, dto.DiscussionPostCreateRequest{Title: "Welcome", Content: "Say hi"})
	require.NoError(t, err)

	liked, err := svc.TogglePostLike(ctx, studentActor, post.Entity.ID)
	require.NoError(t, err)
	require.True(t, liked.Liked)
	require.Equal(t, 1, liked.LikeCount)

	liked, err = svc.TogglePostLike(ctx, instructorActor, post.Entity.ID)
	require.NoError(t, err)
	require.Equal(t, 2, liked.LikeCount)

	unliked, err := svc.TogglePostLike(ctx, studentActor, post.Entity.ID)
	require.NoError(t, err)
	require.False(t, unliked.Liked)
	require.Equal(t, 1, unliked.LikeCount)

	comment, err := svc.CreateComment(ctx, studentActor, post.Entity.ID, dto.DiscussionCommentCreateRequest{Content: "hi!"})
	require.NoError(t, err)
	commentLike, err := svc.ToggleCommentLike(ctx, instructorActor, comment.Entity.ID)
	require.NoError(t, err)
	require.True(t, commentLike.Liked)
	require.Equal(t, 1, commentLike.LikeCount)
}
