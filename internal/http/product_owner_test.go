package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"nokshibox/internal/domain"
	"nokshibox/internal/repos"
)

func sellerClient(t *testing.T, env *testEnv, email string) (*client, *domain.User) {
	t.Helper()
	u := env.mkUser(t, email, domain.RoleSeller, false)
	c := env.client(t)
	expectRedirect(t, c.login(email, testPassword), "/seller/")
	return c, u
}

func TestSellerCreatesProductOwnedBySession(t *testing.T) {
	env := newEnv(t, nil)
	other := env.mkUser(t, "other@nokshibox.test", domain.RoleSeller, false)
	c, seller := sellerClient(t, env, "candles@nokshibox.test")

	resp := c.postMultipart("/seller/", map[string]string{
		"title":     "Candle Art",
		"details":   "Hand-poured soy candle",
		"price":     "19.99",
		"category":  "1",
		"seller_id": itoa(other.ID),
	}, map[string][]byte{"image": pngBytes})
	expectRedirect(t, resp, "/seller/")

	list, err := repos.NewProductRepo(env.db).List(repos.ProductFilter{Q: "candle art"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one product, got %d", len(list))
	}
	p := list[0]
	if p.SellerID != seller.ID {
		t.Fatalf("seller taken from form: got %d want %d", p.SellerID, seller.ID)
	}
	if p.Price != 19.99 || p.CategoryName != "Home Decor" {
		t.Fatalf("unexpected product %+v", p)
	}
	if !strings.HasPrefix(p.Image, "products/") || !strings.HasSuffix(p.Image, ".png") {
		t.Fatalf("image not stored under products/: %q", p.Image)
	}

	s := body(t, c.get("/seller/"))
	if !strings.Contains(s, "Candle Art") || !strings.Contains(s, "19.99") {
		t.Fatalf("new product missing from seller page")
	}
	if !strings.Contains(body(t, env.client(t).get("/products/")), "Candle Art") {
		t.Fatalf("new product missing from public catalogue")
	}
}

func TestSellerCreateValidation(t *testing.T) {
	env := newEnv(t, nil)
	c, _ := sellerClient(t, env, "strict@nokshibox.test")

	cases := []struct {
		name   string
		fields map[string]string
		files  map[string][]byte
	}{
		{"negative price", map[string]string{"title": "Mat", "price": "-1", "category": "1"}, map[string][]byte{"image": pngBytes}},
		{"three decimals", map[string]string{"title": "Mat", "price": "1.999", "category": "1"}, map[string][]byte{"image": pngBytes}},
		{"unknown category", map[string]string{"title": "Mat", "price": "5", "category": "999"}, map[string][]byte{"image": pngBytes}},
		{"missing image", map[string]string{"title": "Mat", "price": "5", "category": "1"}, nil},
		{"not an image", map[string]string{"title": "Mat", "price": "5", "category": "1"}, map[string][]byte{"image": []byte("plain text, not a picture")}},
		{"missing title", map[string]string{"price": "5", "category": "1"}, map[string][]byte{"image": pngBytes}},
	}
	for _, tc := range cases {
		resp := c.postMultipart("/seller/", tc.fields, tc.files)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, resp.StatusCode)
		}
	}
	var n int
	if err := env.db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("invalid submissions created %d products", n)
	}
}

func TestSellerAreaRequiresSellerRole(t *testing.T) {
	env := newEnv(t, nil)
	env.mkUser(t, "buyer@nokshibox.test", domain.RoleBuyer, false)

	expectRedirect(t, env.client(t).get("/seller/"), "/login/?next=%2Fseller%2F")

	c := env.client(t)
	expectRedirect(t, c.login("buyer@nokshibox.test", testPassword), "/buyer/")
	expectRedirect(t, c.get("/seller/"), "/buyer/")
	expectRedirect(t, c.postMultipart("/seller/", map[string]string{"title": "x", "price": "5", "category": "1"}, map[string][]byte{"image": pngBytes}), "/buyer/")
}

func TestDeleteConfirmationNeverDeletes(t *testing.T) {
	env := newEnv(t, nil)
	c, seller := sellerClient(t, env, "owner@nokshibox.test")
	p := env.mkProduct(t, seller, "Clay Pot")
	path := "/product/" + itoa(p.ID) + "/delete/"

	resp := c.get(path)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm page returned %d", resp.StatusCode)
	}
	if !env.productExists(t, p.ID) {
		t.Fatalf("GET deleted the product")
	}

	expectRedirect(t, c.post(path, nil), "/seller/")
	if env.productExists(t, p.ID) {
		t.Fatalf("POST did not delete the product")
	}
	if resp := c.post(path, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d", resp.StatusCode)
	}
}

func TestNonOwnerGetsNotFound(t *testing.T) {
	env := newEnv(t, nil)
	owner := env.mkUser(t, "owner@nokshibox.test", domain.RoleSeller, false)
	p := env.mkProduct(t, owner, "Brass Lamp")
	intruder, _ := sellerClient(t, env, "intruder@nokshibox.test")
	anon := env.client(t)

	edit := "/product/" + itoa(p.ID) + "/edit/"
	del := "/product/" + itoa(p.ID) + "/delete/"
	for name, resp := range map[string]*http.Response{
		"intruder edit form":   intruder.get(edit),
		"intruder edit post":   intruder.postMultipart(edit, map[string]string{"title": "Mine now", "price": "1", "category": "1"}, nil),
		"intruder delete form": intruder.get(del),
		"intruder delete":      intruder.post(del, nil),
		"anonymous edit form":  anon.get(edit),
		"anonymous delete":     anon.post(del, nil),
	} {
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", name, resp.StatusCode)
		}
	}

	got, err := repos.NewProductRepo(env.db).Get(p.ID)
	if err != nil {
		t.Fatalf("product gone: %v", err)
	}
	if got.Title != "Brass Lamp" {
		t.Fatalf("non-owner changed the product: %q", got.Title)
	}
}

func TestOwnerEditsProduct(t *testing.T) {
	env := newEnv(t, nil)
	c, seller := sellerClient(t, env, "editor@nokshibox.test")
	p := env.mkProduct(t, seller, "Old Title")
	edit := "/product/" + itoa(p.ID) + "/edit/"

	resp := c.get(edit)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body(t, resp), "Old Title") {
		t.Fatalf("edit form not prefilled")
	}

	expectRedirect(t, c.postMultipart(edit, map[string]string{
		"title": "New Title", "details": "Updated", "price": "25.50", "category": "2",
	}, nil), "/seller/")

	got, err := repos.NewProductRepo(env.db).Get(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "New Title" || got.Price != 25.5 || got.CategoryID != 2 || got.SellerID != seller.ID {
		t.Fatalf("unexpected product after edit: %+v", got)
	}
	if got.Image != "products/x.png" {
		t.Fatalf("image changed without an upload: %q", got.Image)
	}
}

func TestProductDetailIsPublic(t *testing.T) {
	env := newEnv(t, nil)
	seller := env.mkUser(t, "public@nokshibox.test", domain.RoleSeller, false)
	p := env.mkProduct(t, seller, "Rickshaw Art")

	resp := env.client(t).get("/product/" + itoa(p.ID) + "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail returned %d", resp.StatusCode)
	}
	s := body(t, resp)
	if !strings.Contains(s, "Rickshaw Art") || !strings.Contains(s, `id="ContactSeller"`) {
		t.Fatalf("detail page incomplete")
	}
	if resp := env.client(t).get("/product/999/"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing product expected 404, got %d", resp.StatusCode)
	}
}

func TestCatalogueFilters(t *testing.T) {
	env := newEnv(t, nil)
	seller := env.mkUser(t, "filters@nokshibox.test", domain.RoleSeller, false)
	env.mkProduct(t, seller, "Candle Art")
	env.mkProduct(t, seller, "Wall Hanging")

	s := body(t, env.client(t).get("/products/?"+url.Values{"q": {"candle"}}.Encode()))
	if !strings.Contains(s, "Candle Art") || strings.Contains(s, "Wall Hanging") {
		t.Fatalf("search by title did not narrow the list")
	}
	s = body(t, env.client(t).get("/products/?category=2"))
	if strings.Contains(s, "Candle Art") {
		t.Fatalf("category filter let through another category")
	}
	s = body(t, env.client(t).get("/buyer/"))
	if !strings.Contains(s, "Candle Art") || !strings.Contains(s, "Wall Hanging") || !strings.Contains(s, `id="searchBar"`) {
		t.Fatalf("buyer home should list everything with a search bar")
	}
}

func TestBuyerHomeSearchIndexesTitles(t *testing.T) {
	env := newEnv(t, nil)
	seller := env.mkUser(t, "titles@nokshibox.test", domain.RoleSeller, false)
	env.mkProduct(t, seller, "Jute Basket")

	s := body(t, env.client(t).get("/buyer/"))
	if !strings.Contains(s, `data-title="Jute Basket"`) || !strings.Contains(s, `/static/js/search.js`) {
		t.Fatalf("product cards should carry their title for the search box")
	}
	if strings.Contains(s, "data-category=") {
		t.Fatalf("search box should match titles only")
	}

	resp := env.client(t).get("/static/js/search.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search script: %d", resp.StatusCode)
	}
	if js := body(t, resp); !strings.Contains(js, "dataset.title") || strings.Contains(js, "dataset.category") {
		t.Fatalf("search script should filter on the title only")
	}
}
