package auth

import (
	"sync"
	"testing"
)

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession("")
	if s.Authenticated() {
		t.Error("new session should be anonymous")
	}
	if h := s.Headers(); h != nil {
		t.Errorf("Headers() = %v, want nil", h)
	}

	s.SetToken("abc")
	if !s.Authenticated() {
		t.Error("expected authenticated session")
	}
	if got := s.Headers()["Authorization"]; got != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer abc")
	}

	s.Clear()
	if s.Token() != "" {
		t.Errorf("Token() = %q after Clear, want empty", s.Token())
	}
}

func TestSession_ZeroValue(t *testing.T) {
	var s Session
	if s.Token() != "" {
		t.Error("zero session should have no token")
	}
	s.SetToken("x")
	if s.Token() != "x" {
		t.Errorf("Token() = %q, want x", s.Token())
	}
}

func TestSession_Concurrent(t *testing.T) {
	s := NewSession("seed")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetToken("t")
		}()
		go func() {
			defer wg.Done()
			_ = s.Headers()
		}()
	}
	wg.Wait()
	if s.Token() != "t" {
		t.Errorf("Token() = %q, want t", s.Token())
	}
}

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr string
	}{
		{"missing email", Credentials{Password: "p"}, "email is required"},
		{"missing password", Credentials{Email: "a@example.com"}, "password is required"},
		{"valid", Credentials{Email: "a@example.com", Password: "p"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
