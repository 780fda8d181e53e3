package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IronSpiderMan/OneSite/internal/compiler/loader"
	"github.com/IronSpiderMan/OneSite/internal/schema"
)

func loadAndResolve(t *testing.T, source string) (*schema.Registry, []schema.RelationshipEdge) {
	t.Helper()
	reg := schema.NewRegistry()
	require.NoError(t, loader.LoadSource(reg, source, "test.site"))
	loader.Finalize(reg)
	edges, err := Resolve(reg)
	require.NoError(t, err)
	return reg, edges
}

func resolveErr(t *testing.T, source string) error {
	t.Helper()
	reg := schema.NewRegistry()
	require.NoError(t, loader.LoadSource(reg, source, "test.site"))
	loader.Finalize(reg)
	_, err := Resolve(reg)
	require.Error(t, err)
	return err
}

func TestResolveImplicitForeignKey(t *testing.T) {
	reg, edges := loadAndResolve(t, `
model Post {
  id: int @pk
  title: string
}

model Comment {
  id: int @pk
  post_id: int
  body: string
}
`)

	comment, _ := reg.Get("Comment")
	fk := comment.Field("post_id").ForeignKey
	require.NotNil(t, fk)
	assert.True(t, fk.Implicit)
	assert.Equal(t, "Post", fk.Model)
	assert.Equal(t, "id", fk.Column)

	require.Len(t, edges, 1)
	assert.Equal(t, schema.EdgeOneToMany, edges[0].Kind)
	assert.Equal(t, "Post", edges[0].Source)
	assert.Equal(t, "Comment", edges[0].Target)
	assert.Equal(t, "post_id", edges[0].FKField)
}

func TestResolveImplicitMatchIsCaseInsensitive(t *testing.T) {
	reg, _ := loadAndResolve(t, `
model BlogPost {
  id: int @pk
}

model Comment {
  id: int @pk
  blogpost_id: int
}
`)
	comment, _ := reg.Get("Comment")
	fk := comment.Field("blogpost_id").ForeignKey
	require.NotNil(t, fk)
	assert.Equal(t, "BlogPost", fk.Model)
}

func TestResolveNoMatchDegradesSilently(t *testing.T) {
	reg, edges := loadAndResolve(t, `
model Comment {
  id: int @pk
  author_id: int
}
`)
	comment, _ := reg.Get("Comment")
	assert.Nil(t, comment.Field("author_id").ForeignKey)
	assert.Empty(t, edges)
}

func TestResolveStringIDFieldIsNotInferred(t *testing.T) {
	reg, _ := loadAndResolve(t, `
model Post {
  id: int @pk
}

model Comment {
  id: int @pk
  post_id: string
}
`)
	comment, _ := reg.Get("Comment")
	assert.Nil(t, comment.Field("post_id").ForeignKey)
}

func TestResolveExplicitUnknownModel(t *testing.T) {
	err := resolveErr(t, `
model Comment {
  id: int @pk
  post_id: int @fk(Post.id)
}
`)
	var re *ResolveError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Comment", re.Model)
	assert.Contains(t, re.Message, "unknown model Post")
}

func TestResolveExplicitUnknownColumn(t *testing.T) {
	err := resolveErr(t, `
model Post {
  id: int @pk
}

model Comment {
  id: int @pk
  post_id: int @fk(Post.uuid)
}
`)
	var re *ResolveError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, re.Message, "unknown column Post.uuid")
}

func TestResolveManyToMany(t *testing.T) {
	reg, edges := loadAndResolve(t, `
model Post {
  id: int @pk
  title: string
}

model Tag {
  id: int @pk
  name: string
}

model PostTag @link_table {
  post_id: int @pk @fk(Post.id)
  tag_id: int @pk @fk(Tag.id)
}
`)

	require.Len(t, edges, 1)
	e := edges[0]
	assert.Equal(t, schema.EdgeManyToMany, e.Kind)
	assert.Equal(t, "Post", e.Source)
	assert.Equal(t, "Tag", e.Target)
	assert.Equal(t, "PostTag", e.LinkModel)
	assert.Equal(t, "post_id", e.SourceFKColumn)
	assert.Equal(t, "tag_id", e.TargetFKColumn)

	post, _ := reg.Get("Post")
	tagIDs := post.Field("tag_ids")
	require.NotNil(t, tagIDs)
	assert.True(t, tagIDs.Synthetic)
	assert.True(t, tagIDs.Optional)
	assert.True(t, tagIDs.List)
	assert.Equal(t, schema.TypeInt, tagIDs.Type)
	assert.Equal(t, "Tag", tagIDs.RelTarget)

	tag, _ := reg.Get("Tag")
	postIDs := tag.Field("post_ids")
	require.NotNil(t, postIDs)
	assert.Equal(t, "Post", postIDs.RelTarget)
}

func TestSyntheticIDListFollowsTargetKeyType(t *testing.T) {
	reg, _ := loadAndResolve(t, `
model Doc {
  key: string @pk
}

model Label {
  id: int @pk
  name: string
}

model DocLabel @link_table {
  doc_key: string @pk @fk(Doc.key)
  label_id: int @pk @fk(Label.id)
}
`)

	label, _ := reg.Get("Label")
	docIDs := label.Field("doc_ids")
	require.NotNil(t, docIDs)
	assert.Equal(t, schema.TypeString, docIDs.Type)

	doc, _ := reg.Get("Doc")
	labelIDs := doc.Field("label_ids")
	require.NotNil(t, labelIDs)
	assert.Equal(t, schema.TypeInt, labelIDs.Type)
}

func TestResolveLinkTableWrongFKCount(t *testing.T) {
	err := resolveErr(t, `
model Post {
  id: int @pk
}

model PostExtra @link_table {
  post_id: int @pk @fk(Post.id)
}
`)
	var lte *LinkTableError
	require.True(t, errors.As(err, &lte))
	assert.Equal(t, "PostExtra", lte.Model)
	assert.Contains(t, lte.Message, "exactly two foreign key fields, found 1")
}

func TestResolveLinkTableFKsMustComposePK(t *testing.T) {
	err := resolveErr(t, `
model Post {
  id: int @pk
}

model Tag {
  id: int @pk
}

model PostTag @link_table {
  post_id: int @fk(Post.id)
  tag_id: int @pk @fk(Tag.id)
}
`)
	var lte *LinkTableError
	require.True(t, errors.As(err, &lte))
	assert.Contains(t, lte.Message, "compose the primary key")
}

func TestResolveLinkTableUnknownTarget(t *testing.T) {
	err := resolveErr(t, `
model Post {
  id: int @pk
}

model PostTag @link_table {
  post_id: int @pk @fk(Post.id)
  tag_id: int @pk @fk(Tag.id)
}
`)
	// The unknown target trips explicit FK validation before link-table checks
	var re *ResolveError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, re.Message, "unknown model Tag")
}

func TestResolveEdgeOrderFollowsRegistry(t *testing.T) {
	_, edges := loadAndResolve(t, `
model Author {
  id: int @pk
}

model Book {
  id: int @pk
  author_id: int
}

model Review {
  id: int @pk
  book_id: int
  author_id: int
}
`)

	require.Len(t, edges, 3)
	assert.Equal(t, "Book", edges[0].Target)
	assert.Equal(t, "author_id", edges[0].FKField)
	assert.Equal(t, "Review", edges[1].Target)
	assert.Equal(t, "book_id", edges[1].FKField)
	assert.Equal(t, "Review", edges[2].Target)
	assert.Equal(t, "author_id", edges[2].FKField)
}

func TestFKEdgeFor(t *testing.T) {
	_, edges := loadAndResolve(t, `
model Post {
  id: int @pk
}

model Comment {
  id: int @pk
  post_id: int
}
`)

	e := schema.FKEdgeFor(edges, "Comment", "post_id")
	require.NotNil(t, e)
	assert.Equal(t, "Post", e.Source)

	assert.Nil(t, schema.FKEdgeFor(edges, "Comment", "body"))
}
