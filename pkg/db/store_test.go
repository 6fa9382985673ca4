package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertWordsAssignsIDs(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t, SchemaOptions{})
	words := []Word{
		{Language: "fr", Lemma: "chat", Phonetic: "Sa", Frequency: 120.5},
		{Language: "fr", Lemma: "chien", Phonetic: "SjE~"},
	}
	n, err := InsertWords(ctx, conn, words)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotZero(t, words[0].ID)
	assert.Greater(t, words[1].ID, words[0].ID)

	var phon string
	var freq float64
	require.NoError(t, conn.QueryRow(`SELECT phonetic, freq FROM word WHERE id = ?`, words[0].ID).Scan(&phon, &freq))
	assert.Equal(t, "Sa", phon)
	assert.Equal(t, 120.5, freq)
}

func TestInsertWordsValidation(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t, SchemaOptions{})
	cases := []Word{
		{Language: "fr", Lemma: "  "},
		{Lemma: "chat"},
		{Language: "fr", Lemma: "chat", Frequency: -1},
	}
	for _, w := range cases {
		_, err := InsertWords(ctx, conn, []Word{w})
		assert.Error(t, err, "%+v", w)
	}
	n, err := CountWords(ctx, conn, "fr")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRebuildSearchIndexPerLanguage(t *testing.T) {
	for _, module := range []string{"", ModuleFTS4} {
		t.Run("module="+module, func(t *testing.T) {
			ctx := context.Background()
			conn := setupTestDB(t, SchemaOptions{SearchModule: module})

			_, err := InsertWords(ctx, conn, []Word{
				{Language: "en", Lemma: "cat", Frequency: 10},
				{Language: "en", Lemma: "dog", Frequency: 5},
			})
			require.NoError(t, err)
			indexed, err := RebuildSearchIndex(ctx, conn, "en")
			require.NoError(t, err)
			assert.EqualValues(t, 2, indexed)

			_, err = InsertWords(ctx, conn, []Word{{Language: "fr", Lemma: "chat", Frequency: 120.5}})
			require.NoError(t, err)
			indexed, err = RebuildSearchIndex(ctx, conn, "fr")
			require.NoError(t, err)
			assert.EqualValues(t, 1, indexed)

			// a second rebuild does not duplicate entries
			indexed, err = RebuildSearchIndex(ctx, conn, "fr")
			require.NoError(t, err)
			assert.EqualValues(t, 1, indexed)

			en, err := CountIndexed(ctx, conn, "en")
			require.NoError(t, err)
			assert.EqualValues(t, 2, en)

			var total int64
			require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM word_fts`).Scan(&total))
			assert.EqualValues(t, 3, total)
		})
	}
}

func TestSearchExact(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t, SchemaOptions{})
	words := []Word{
		{Language: "fr", Lemma: "chat", Phonetic: "Sa", Frequency: 120.5},
		{Language: "fr", Lemma: "chaton", Frequency: 3},
		{Language: "en", Lemma: "chat", Frequency: 1},
	}
	_, err := InsertWords(ctx, conn, words)
	require.NoError(t, err)
	_, err = RebuildSearchIndex(ctx, conn, "fr")
	require.NoError(t, err)
	_, err = RebuildSearchIndex(ctx, conn, "en")
	require.NoError(t, err)

	found, err := SearchExact(ctx, conn, "chat", "fr")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, words[0], found[0])

	found, err = SearchExact(ctx, conn, "chat", "")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, words[0].ID, found[0].ID)
	assert.Equal(t, words[2].ID, found[1].ID)

	found, err = SearchExact(ctx, conn, `ch"at`, "fr")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = SearchExact(ctx, conn, " ", "fr")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSearchExactSeparatorOnlyLemma(t *testing.T) {
	for _, module := range []string{"", ModuleFTS4} {
		t.Run("module="+module, func(t *testing.T) {
			ctx := context.Background()
			conn := setupTestDB(t, SchemaOptions{SearchModule: module})
			words := []Word{
				{Language: "fr", Lemma: "-"},
				{Language: "fr", Lemma: "c'est", Frequency: 900},
				{Language: "fr", Lemma: "chat", Frequency: 120.5},
			}
			_, err := InsertWords(ctx, conn, words)
			require.NoError(t, err)
			_, err = RebuildSearchIndex(ctx, conn, "fr")
			require.NoError(t, err)

			for _, w := range words {
				found, err := SearchExact(ctx, conn, w.Lemma, "fr")
				require.NoError(t, err)
				require.Len(t, found, 1, w.Lemma)
				assert.Equal(t, w.ID, found[0].ID)
			}

			found, err := SearchExact(ctx, conn, "-", "en")
			require.NoError(t, err)
			assert.Empty(t, found)

			// only indexed words are found
			_, err = conn.Exec(`DELETE FROM word_fts WHERE rowid = ?`, words[0].ID)
			require.NoError(t, err)
			found, err = SearchExact(ctx, conn, "-", "fr")
			require.NoError(t, err)
			assert.Empty(t, found)
		})
	}
}

func TestSearchPrefix(t *testing.T) {
	for _, module := range []string{"", ModuleFTS4} {
		t.Run("module="+module, func(t *testing.T) {
			ctx := context.Background()
			conn := setupTestDB(t, SchemaOptions{SearchModule: module})
			_, err := InsertWords(ctx, conn, []Word{
				{Language: "fr", Lemma: "chat", Frequency: 120.5},
				{Language: "fr", Lemma: "chaton", Frequency: 3},
				{Language: "fr", Lemma: "chien", Frequency: 200},
				{Language: "fr", Lemma: "maison", Frequency: 500},
			})
			require.NoError(t, err)
			_, err = RebuildSearchIndex(ctx, conn, "fr")
			require.NoError(t, err)

			lemmas, err := SearchPrefix(ctx, conn, "cha", "fr", 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"chat", "chaton"}, lemmas)

			lemmas, err = SearchPrefix(ctx, conn, "ch", "", 2)
			require.NoError(t, err)
			assert.Equal(t, []string{"chien", "chat"}, lemmas)

			lemmas, err = SearchPrefix(ctx, conn, "cha", "en", 10)
			require.NoError(t, err)
			assert.Empty(t, lemmas)
		})
	}
}

func TestPrefixQuery(t *testing.T) {
	assert.Equal(t, `"ab"*`, prefixQuery(ModuleFTS5, "ab"))
	assert.Equal(t, `"ab*"`, prefixQuery(ModuleFTS4, "ab"))
	assert.Equal(t, `"a b"`, phraseQuery(`a"b`))
	assert.True(t, hasTokens("c'est"))
	assert.True(t, hasTokens("été"))
	assert.False(t, hasTokens("-"))
	assert.False(t, hasTokens(`" ' .`))
}

func TestConstraintViolationRollsBack(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t, SchemaOptions{})
	_, err := conn.Exec(`CREATE UNIQUE INDEX word_uniq ON word(lang, lemma)`)
	require.NoError(t, err)
	_, err = InsertWords(ctx, conn, []Word{{Language: "fr", Lemma: "maison"}})
	require.NoError(t, err)

	err = RunInTx(ctx, conn, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := InsertWords(ctx, tx, []Word{{Language: "fr", Lemma: "chat"}}); err != nil {
			return err
		}
		_, err := InsertWords(ctx, tx, []Word{{Language: "fr", Lemma: "chat"}})
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	var cerr *ConstraintViolationError
	assert.ErrorAs(t, err, &cerr)

	n, err := CountWords(ctx, conn, "fr")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
