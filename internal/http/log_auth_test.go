package handlers_test

import (
	"net/url"
	"strings"
	"testing"

	"nokshibox/internal/domain"
)

func TestAuthLogging(t *testing.T) {
	env := newEnv(t, nil)
	env.mkUser(t, "alice@nokshibox.test", domain.RoleBuyer, false)
	c := env.client(t)
	c.csrf()

	failLogs := captureLogs(t, func() { c.login("alice@nokshibox.test", "badpass1!") })
	e, ok := findLog(failLogs, "auth.login.fail")
	if !ok {
		t.Fatalf("auth.login.fail log not found")
	}
	if e.Fields["email"] != "alice@nokshibox.test" || e.Fields["reason"] != "bad_credentials" {
		t.Fatalf("auth.login.fail fields: %v", e.Fields)
	}

	successLogs := captureLogs(t, func() { c.login("alice@nokshibox.test", testPassword) })
	if _, ok := findLog(successLogs, "auth.login.success"); !ok {
		t.Fatalf("auth.login.success log not found")
	}

	for _, entries := range [][]logEntry{failLogs, successLogs} {
		for _, e := range entries {
			for k, v := range e.Fields {
				if s, _ := v.(string); strings.Contains(s, testPassword) || strings.Contains(s, "badpass1!") {
					t.Fatalf("password leaked into log field %s", k)
				}
			}
		}
	}
}

func TestAuditLogCarriesUser(t *testing.T) {
	env := newEnv(t, nil)
	seller := env.mkUser(t, "auditor@nokshibox.test", domain.RoleSeller, false)
	p := env.mkProduct(t, seller, "Audit Me")
	c := env.client(t)
	expectRedirect(t, c.login("auditor@nokshibox.test", testPassword), "/seller/")

	logs := captureLogs(t, func() { c.post("/product/"+itoa(p.ID)+"/delete/", nil) })
	e, ok := findLog(logs, "product.delete")
	if !ok {
		t.Fatalf("product.delete audit log not found")
	}
	if e.Level != "audit" || e.UserID != seller.ID {
		t.Fatalf("unexpected audit entry %+v", e)
	}
}

func TestAdminLoginFailureLogged(t *testing.T) {
	env := newEnv(t, nil)
	c := env.client(t)
	c.csrf()
	logs := captureLogs(t, func() {
		c.post("/admin/login/", url.Values{"username": {"nobody@nokshibox.test"}, "password": {"whatever1"}})
	})
	e, ok := findLog(logs, "admin.login.fail")
	if !ok || e.Level != "warn" {
		t.Fatalf("admin.login.fail warn log not found: %+v", logs)
	}
}
