package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IronSpiderMan/OneSite/internal/compiler/loader"
	"github.com/IronSpiderMan/OneSite/internal/compiler/resolve"
	"github.com/IronSpiderMan/OneSite/internal/schema"
)

const blogSource = `
model User {
  id: int @pk
  username: string @site(search: true)
  email: string @site(permissions: "rc")
  is_active: bool = true @site(permissions: "r")
}

model Post {
  id: int @pk
  title: string @site(search: true)
  body: string
  user_id: int?
  cover_image: string?
  status: enum(DRAFT, PUBLISHED) = DRAFT
}

model Tag {
  id: int @pk
  name: string
}

model PostTag @link_table {
  post_id: int @pk @fk(Post.id)
  tag_id: int @pk @fk(Tag.id)
}
`

func generate(t *testing.T, source string) []Artifact {
	return generateWith(t, source, DefaultSettings)
}

func generateWith(t *testing.T, source string, settings Settings) []Artifact {
	t.Helper()
	reg := schema.NewRegistry()
	require.NoError(t, loader.LoadSource(reg, source, "models.site"))
	loader.Finalize(reg)
	edges, err := resolve.Resolve(reg)
	require.NoError(t, err)

	g, err := New()
	require.NoError(t, err)
	artifacts, err := g.All(reg, edges, settings)
	require.NoError(t, err)
	return artifacts
}

func artifactByPath(t *testing.T, artifacts []Artifact, path string) string {
	t.Helper()
	for _, a := range artifacts {
		if a.Path == path {
			return string(a.Content)
		}
	}
	t.Fatalf("artifact %s not generated; have %d artifacts", path, len(artifacts))
	return ""
}

func TestGenerateIsDeterministic(t *testing.T) {
	first := generate(t, blogSource)
	second := generate(t, blogSource)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Path, second[i].Path)
		assert.Equal(t, string(first[i].Content), string(second[i].Content), first[i].Path)
	}
}

func TestGenerateArtifactPaths(t *testing.T) {
	artifacts := generate(t, blogSource)

	paths := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		paths[a.Path] = true
	}

	for _, want := range []string{
		"backend/app/models/post.py",
		"backend/app/schemas/post.py",
		"backend/app/cruds/post.py",
		"backend/app/api/endpoints/post.py",
		"backend/app/models/posttag.py",
		"backend/app/api/api.py",
		"frontend/src/services/post.ts",
		"frontend/src/stores/usePostStore.ts",
		"frontend/src/pages/post/index.tsx",
		"frontend/src/pages/post/detail.tsx",
		"frontend/src/Routes.tsx",
		"frontend/src/Menu.tsx",
	} {
		assert.True(t, paths[want], "missing artifact %s", want)
	}

	// A link table contributes its table model and nothing else
	assert.False(t, paths["backend/app/schemas/posttag.py"])
	assert.False(t, paths["frontend/src/pages/posttag/index.tsx"])
}

func TestPermissionProjection(t *testing.T) {
	artifacts := generate(t, `
model Secret {
  id: int @pk
  name: string
  token: string @site(permissions: "cu")
}
`)

	content := artifactByPath(t, artifacts, "backend/app/schemas/secret.py")

	readPart := content[:stringsIndex(t, content, "class SecretCreate")]
	assert.NotContains(t, readPart, "token")
	assert.Contains(t, content, "class SecretCreate")
	createPart := content[stringsIndex(t, content, "class SecretCreate"):stringsIndex(t, content, "class SecretUpdate")]
	assert.Contains(t, createPart, "token: str")
	updatePart := content[stringsIndex(t, content, "class SecretUpdate"):]
	assert.Contains(t, updatePart, "token: Optional[str] = None")
}

func stringsIndex(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	require.GreaterOrEqual(t, idx, 0, "expected %q in artifact", sub)
	return idx
}

func TestEnumRendering(t *testing.T) {
	artifacts := generate(t, `
model Product {
  id: int @pk
  name: string
  category: enum(ELECTRONICS, CLOTHING) = ELECTRONICS
}
`)

	model := artifactByPath(t, artifacts, "backend/app/models/product.py")
	assert.Contains(t, model, "class ProductCategoryEnum(str, Enum):")
	assert.Contains(t, model, `ELECTRONICS = "ELECTRONICS"`)
	assert.Contains(t, model, "category: ProductCategoryEnum = Field(default=ProductCategoryEnum.ELECTRONICS)")

	detail := artifactByPath(t, artifacts, "frontend/src/pages/product/detail.tsx")
	assert.Contains(t, detail, `<option value="ELECTRONICS">ELECTRONICS</option>`)
	assert.Contains(t, detail, `<option value="CLOTHING">CLOTHING</option>`)
}

func TestForeignKeyRendering(t *testing.T) {
	artifacts := generate(t, blogSource)

	model := artifactByPath(t, artifacts, "backend/app/models/post.py")
	assert.Contains(t, model, `user_id: Optional[int] = Field(default=None, foreign_key="user.id")`)

	detail := artifactByPath(t, artifacts, "frontend/src/pages/post/detail.tsx")
	assert.Contains(t, detail, "userOptions.map((opt) =>")
	assert.Contains(t, detail, "String(opt.username)")
}

func TestManyToManyRendering(t *testing.T) {
	artifacts := generate(t, blogSource)

	crud := artifactByPath(t, artifacts, "backend/app/cruds/post.py")
	assert.Contains(t, crud, "from app.models.posttag import PostTag")
	assert.Contains(t, crud, "def get_tag_ids(db: Session, id: int)")
	assert.Contains(t, crud, "def _set_tag_ids(db: Session, id: int, ids: List[int])")
	assert.Contains(t, crud, "PostTag(post_id=id, tag_id=target_id)")

	crudTag := artifactByPath(t, artifacts, "backend/app/cruds/tag.py")
	assert.Contains(t, crudTag, "def get_post_ids(db: Session, id: int)")

	schemaFile := artifactByPath(t, artifacts, "backend/app/schemas/post.py")
	assert.Contains(t, schemaFile, "tag_ids: Optional[List[int]]")

	// The link table itself is not stored as a field anywhere else
	model := artifactByPath(t, artifacts, "backend/app/models/post.py")
	assert.NotContains(t, model, "tag_ids")
}

func TestSettingsAreRendered(t *testing.T) {
	artifacts := generateWith(t, blogSource, Settings{PageSize: 25, PublicPath: "/assets"})

	crud := artifactByPath(t, artifacts, "backend/app/cruds/post.py")
	assert.Contains(t, crud, "size: int = 25,")

	api := artifactByPath(t, artifacts, "backend/app/api/endpoints/post.py")
	assert.Contains(t, api, "size: int = Query(25, ge=1, le=100)")

	store := artifactByPath(t, artifacts, "frontend/src/stores/usePostStore.ts")
	assert.Contains(t, store, "size: 25,")

	list := artifactByPath(t, artifacts, "frontend/src/pages/post/index.tsx")
	assert.Contains(t, list, "`/assets/${url}`")
	assert.Contains(t, list, "src={asset(item.cover_image)}")
}

func TestSettingsZeroValuesFallBack(t *testing.T) {
	artifacts := generateWith(t, blogSource, Settings{})

	crud := artifactByPath(t, artifacts, "backend/app/cruds/post.py")
	assert.Contains(t, crud, "size: int = 10,")

	list := artifactByPath(t, artifacts, "frontend/src/pages/post/index.tsx")
	assert.Contains(t, list, "`/static/${url}`")
}

func TestReadSchemaValidatesTableRows(t *testing.T) {
	artifacts := generate(t, blogSource)

	schemaFile := artifactByPath(t, artifacts, "backend/app/schemas/post.py")
	readPart := schemaFile[:stringsIndex(t, schemaFile, "class PostCreate")]

	// Optional and synthetic fields need a default: the API validates raw
	// table rows, which never carry the relation id lists.
	assert.Contains(t, readPart, "tag_ids: Optional[List[int]] = None")
	assert.Contains(t, readPart, "user_id: Optional[int] = None")
	assert.Contains(t, readPart, "id: Optional[int] = None")
	assert.Contains(t, readPart, "title: str\n")
	assert.NotContains(t, readPart, "title: str =")
}

func TestRouterIsReplaceByKey(t *testing.T) {
	artifacts := generate(t, blogSource)
	router := artifactByPath(t, artifacts, "backend/app/api/api.py")

	assert.Equal(t, 1, strings.Count(router, `prefix="/posts"`))
	assert.Equal(t, 1, strings.Count(router, `prefix="/users"`))
	assert.NotContains(t, router, "posttag")
}

func TestUserPasswordHandling(t *testing.T) {
	artifacts := generate(t, blogSource)

	schemaFile := artifactByPath(t, artifacts, "backend/app/schemas/user.py")
	createPart := schemaFile[stringsIndex(t, schemaFile, "class UserCreate"):stringsIndex(t, schemaFile, "class UserUpdate")]
	assert.Contains(t, createPart, "password: str")
	readPart := schemaFile[:stringsIndex(t, schemaFile, "class UserCreate")]
	assert.NotContains(t, readPart, "password")

	model := artifactByPath(t, artifacts, "backend/app/models/user.py")
	assert.Contains(t, model, "hashed_password: str")
	assert.NotContains(t, model, "\n    password:")

	crud := artifactByPath(t, artifacts, "backend/app/cruds/user.py")
	assert.Contains(t, crud, "from app.core.security import get_password_hash")
	assert.Contains(t, crud, `data["hashed_password"] = get_password_hash(password)`)
}

func TestMenuAndRoutes(t *testing.T) {
	artifacts := generate(t, blogSource)

	menu := artifactByPath(t, artifacts, "frontend/src/Menu.tsx")
	assert.Contains(t, menu, `{ path: "/users", label: "Users" }`)
	assert.Contains(t, menu, `{ path: "/posts", label: "Posts" }`)
	assert.NotContains(t, menu, "posttags")

	routes := artifactByPath(t, artifacts, "frontend/src/Routes.tsx")
	assert.Contains(t, routes, `<Route path="/posts" element={<PostListPage />} />`)
	assert.Contains(t, routes, `<Route path="/posts/:id" element={<PostDetailPage />} />`)
}
