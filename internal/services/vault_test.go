package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSearch_ExactKeywordShortCircuits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, 1, "alice")

	env.addText(t, 1, "pie", "apple", "baking")
	env.addText(t, 1, "notes", "buy pie crust", "")

	res, err := env.vault.Search(ctx, 1, "PIE", common.Ungrouped)
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, "pie", res.Notes[0].Keyword, "exact hit ignores the group filter")
}

func TestSearch_SubstringNewestFirstAndScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, 1, "alice")

	env.addText(t, 1, "a", "Milk and eggs", "shop")
	env.addText(t, 1, "b", "eggplant", "")
	_, err := env.vault.AddNote(ctx, 1, NoteDraft{
		Keyword: "c", Type: models.NoteTypePhoto, Caption: "EGG hunt", Content: strings.NewReader("x"),
	})
	require.NoError(t, err)

	res, err := env.vault.Search(ctx, 1, "egg", "")
	require.NoError(t, err)
	assert.False(t, res.Exact)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"c", "b", "a"}, keywordsOf(res.Notes))

	res, err = env.vault.Search(ctx, 1, "egg", "shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keywordsOf(res.Notes))

	res, err = env.vault.Search(ctx, 1, "egg", common.Ungrouped)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, keywordsOf(res.Notes))
}

func TestSearch_WildcardsAreLiteral(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, 1, "alice")

	env.addText(t, 1, "discount", "20% off", "")
	env.addText(t, 1, "plain", "20 dollars", "")

	res, err := env.vault.Search(ctx, 1, "20%", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"discount"}, keywordsOf(res.Notes))
}

func TestSearch_TruncatesButReportsTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, 1, "alice")

	for i := 0; i < 35; i++ {
		env.addText(t, 1, fmt.Sprintf("k%02d", i), "shared needle", "")
	}

	res, err := env.vault.Search(ctx, 1, "needle", "")
	require.NoError(t, err)
	assert.Equal(t, 35, res.Total)
	require.Len(t, res.Notes, common.MaxSearchResults)
	assert.Equal(t, "k34", res.Notes[0].Keyword)

	res, err = env.vault.Search(ctx, 1, "", "")
	require.NoError(t, err)
	assert.Equal(t, 35, res.Total, "empty query matches everything")
}

func TestListKeywords_Grouped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, 1, "alice")

	env.addText(t, 1, "zebra", "1", "animals")
	env.addText(t, 1, "ant", "2", "animals")
	env.addText(t, 1, "oak", "3", "trees")
	env.addText(t, 1, "misc", "4", "")
	env.addText(t, 1, "inbox", "5", "")

	idx, err := env.vault.ListKeywords(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Total)
	assert.Equal(t, []KeywordGroup{
		{Name: "animals", Keywords: []string{"ant", "zebra"}},
		{Name: "trees", Keywords: []string{"oak"}},
	}, idx.Groups)
	assert.Equal(t, []string{"inbox", "misc"}, idx.Ungrouped)
}

func TestDeleteAccount_ConfirmationMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, 1, "alice")
	env.addText(t, 1, "k", "v", "")

	err := env.vault.DeleteAccount(ctx, 1, "alicia")
	require.ErrorIs(t, err, common.ErrorConfirmationMismatch)

	_, err = env.vault.GetNote(ctx, 1, "k")
	require.NoError(t, err, "nothing is deleted on mismatch")
}

func TestDeleteAccount_Cascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, 1, "Alice")
	env.login(t, 2, "Alice")
	env.login(t, 3, "bob")

	env.addText(t, 1, "k", "v", "g")
	pic, err := env.vault.AddNote(ctx, 1, NoteDraft{
		Keyword: "pic", Type: models.NoteTypePhoto, Content: strings.NewReader("x"), ContentID: "pic.jpg",
	})
	require.NoError(t, err)
	env.addText(t, 3, "k", "bob keeps this", "")

	require.NoError(t, env.vault.DeleteAccount(ctx, 1, " aLiCe "))

	assert.False(t, env.media.has(pic.MediaRef))
	deleted := env.logs.FilterMessage("account deleted").All()
	require.Len(t, deleted, 1)
	assert.Equal(t, int64(2), deleted[0].ContextMap()["sessions"], "both sessions of the user are counted")
	for _, id := range []int64{1, 2} {
		_, err := env.vault.CurrentUser(ctx, id)
		require.ErrorIs(t, err, common.ErrorUnauthenticated, "external id %d", id)
	}

	_, err = env.vault.Login(ctx, 1, "alice", "secret1")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	note, err := env.vault.GetNote(ctx, 3, "k")
	require.NoError(t, err)
	assert.Equal(t, "bob keeps this", note.Text)

	_, err = env.vault.Register(ctx, 1, "alice", "secret1")
	require.NoError(t, err, "the name is free again")
	idx, err := env.vault.ListKeywords(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, idx.Total)
}

func TestAddNote_ConcurrentDuplicateKeyword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const workers = 8
	for i := int64(1); i <= workers; i++ {
		env.login(t, i, "alice")
	}

	var ok, dup atomic.Int32
	var g errgroup.Group
	for i := int64(1); i <= workers; i++ {
		id := i
		g.Go(func() error {
			_, err := env.vault.AddNote(ctx, id, NoteDraft{Keyword: "race", Type: models.NoteTypeText, Text: fmt.Sprint(id)})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrorDuplicateKeyword):
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(workers-1), dup.Load())
}

func TestOpenMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.login(t, 1, "alice")
	env.login(t, 2, "bob")

	note, err := env.vault.AddNote(ctx, 1, NoteDraft{
		Keyword: "v", Type: models.NoteTypeVideoNote, Content: strings.NewReader("x"), ContentID: "v.mp4",
	})
	require.NoError(t, err)

	_, err = env.vault.OpenMedia(ctx, 2, note)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = env.media.Remove(ctx, note.MediaRef)
	require.NoError(t, err)
	_, err = env.vault.OpenMedia(ctx, 1, note)
	require.ErrorIs(t, err, common.ErrorNotFound)

	text := &models.Note{UserName: "alice", Type: models.NoteTypeText}
	_, err = env.vault.OpenMedia(ctx, 1, text)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func keywordsOf(notes []*models.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Keyword)
	}
	return out
}

func TestMediaObjectID(t *testing.T) {
	orig := newMediaID
	t.Cleanup(func() { newMediaID = orig })
	newMediaID = func() string { return "id" }

	tests := []struct {
		hint, want string
	}{
		{"photo.JPG", "id.jpg"},
		{"AgACAgIAAxkBAAIC", "id"},
		{"", "id"},
		{"dir/clip.mp4", "id.mp4"},
		{"archive.tar.gz", "id.gz"},
		{"odd.p/g", "id"},
		{"weird.j pg", "id"},
		{"long.extensionname", "id"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, mediaObjectID(tc.hint), tc.hint)
	}
}
