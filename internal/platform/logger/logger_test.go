package logger

import "testing"

func TestRedactorMasksSensitiveKeys(t *testing.T) {
	r := &redactor{enabled: true}
	out := r.kvs([]interface{}{"refresh_token", "abc", "course_id", "c1", "user_id", "u1"})
	if out[1] != "[REDACTED]" {
		t.Fatalf("refresh_token: want=[REDACTED] got=%v", out[1])
	}
	if out[3] != "c1" {
		t.Fatalf("course_id: want=c1 got=%v", out[3])
	}
	hashed, _ := out[5].(string)
	if len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id: want hashed value got=%v", out[5])
	}
}

func TestRedactorDisabledPassesThrough(t *testing.T) {
	r := &redactor{enabled: false}
	out := r.kvs([]interface{}{"password", "hunter2"})
	if out[1] != "hunter2" {
		t.Fatalf("password: want=hunter2 got=%v", out[1])
	}
}

func TestRedactorJWTValue(t *testing.T) {
	r := &redactor{enabled: true}
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1c2VyLTEyMyJ9.sig"
	out := r.kvs([]interface{}{"header", jwt})
	if out[1] != "[REDACTED]" {
		t.Fatalf("jwt value: want=[REDACTED] got=%v", out[1])
	}
}

func TestRedactorOddKeyCount(t *testing.T) {
	r := &redactor{enabled: true}
	out := r.kvs([]interface{}{"k", "v", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("dangling key: got=%v", out)
	}
}
