package wiki

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
)

func pageInfoResponse(title string, attrs map[string]interface{}) map[string]interface{} {
	page := map[string]interface{}{
		"pageid": 1,
		"ns":     0,
		"title":  title,
	}
	for k, v := range attrs {
		page[k] = v
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"pages": map[string]interface{}{"1": page},
		},
	}
}

func TestPageInfo(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]interface{}
		want     PageInfo
	}{
		{
			name:     "existing page",
			response: pageInfoResponse("Test", nil),
			want:     PageInfo{Title: "Test", PageID: 1, Exists: true},
		},
		{
			name: "missing page",
			response: map[string]interface{}{
				"query": map[string]interface{}{
					"pages": map[string]interface{}{
						"-1": map[string]interface{}{
							"ns": 0, "title": "Gone", "missing": "",
						},
					},
				},
			},
			want: PageInfo{Title: "Gone", Exists: false},
		},
		{
			name:     "redirect",
			response: pageInfoResponse("Old", map[string]interface{}{"redirect": ""}),
			want:     PageInfo{Title: "Old", PageID: 1, Exists: true, Redirect: true},
		},
		{
			name: "disambiguation page",
			response: pageInfoResponse("Mercury", map[string]interface{}{
				"pageprops": map[string]interface{}{"disambiguation": ""},
			}),
			want: PageInfo{Title: "Mercury", PageID: 1, Exists: true, Disambig: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = r.ParseForm()
				if r.Form.Get("action") != "query" {
					t.Errorf("action = %q, want query", r.Form.Get("action"))
				}
				writeJSON(t, w, tt.response)
			})

			info, err := client.PageInfo(context.Background(), tt.want.Title)
			if err != nil {
				t.Fatalf("PageInfo: %v", err)
			}
			if info != tt.want {
				t.Errorf("PageInfo = %+v, want %+v", info, tt.want)
			}
		})
	}
}

func TestPageInfoCached(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, pageInfoResponse("Test", nil))
	})

	ctx := context.Background()
	if _, err := client.PageInfo(ctx, "Test"); err != nil {
		t.Fatalf("PageInfo: %v", err)
	}
	if _, err := client.PageInfo(ctx, "Test"); err != nil {
		t.Fatalf("PageInfo (cached): %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("API calls = %d, want 1 (second lookup cached)", calls)
	}
}

func TestPageInfoRequiresTitle(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := client.PageInfo(context.Background(), ""); err == nil {
		t.Fatal("empty title should error")
	}
}

func TestRedirectTarget(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"redirects": []interface{}{
					map[string]interface{}{"from": "Testing", "to": "Test"},
				},
				"pages": map[string]interface{}{
					"1": map[string]interface{}{"pageid": 1, "ns": 0, "title": "Test"},
				},
			},
		})
	})

	target, err := client.RedirectTarget(context.Background(), "Testing")
	if err != nil {
		t.Fatalf("RedirectTarget: %v", err)
	}
	if target != "Test" {
		t.Errorf("target = %q, want Test", target)
	}
}

func TestRedirectTargetNormalized(t *testing.T) {
	// The API normalizes "testing" to "Testing" before resolving the
	// redirect; the redirects entry is keyed by the normalized form.
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"normalized": []interface{}{
					map[string]interface{}{"from": "testing", "to": "Testing"},
				},
				"redirects": []interface{}{
					map[string]interface{}{"from": "Testing", "to": "Test"},
				},
				"pages": map[string]interface{}{
					"1": map[string]interface{}{"pageid": 1, "ns": 0, "title": "Test"},
				},
			},
		})
	})

	target, err := client.RedirectTarget(context.Background(), "testing")
	if err != nil {
		t.Fatalf("RedirectTarget: %v", err)
	}
	if target != "Test" {
		t.Errorf("target = %q, want Test", target)
	}
}

func TestRedirectTargetNotRedirect(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"1": map[string]interface{}{"pageid": 1, "ns": 0, "title": "Test"},
				},
			},
		})
	})

	_, err := client.RedirectTarget(context.Background(), "Test")
	var nr *NotRedirectError
	if !errors.As(err, &nr) {
		t.Fatalf("err = %v, want NotRedirectError", err)
	}
}

func TestRedirectsTo(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("list") != "backlinks" {
			t.Errorf("list = %q, want backlinks", r.Form.Get("list"))
		}
		if r.Form.Get("blfilterredir") != "redirects" {
			t.Errorf("blfilterredir = %q, want redirects", r.Form.Get("blfilterredir"))
		}
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"backlinks": []interface{}{
					map[string]interface{}{"title": "Testing", "ns": 0},
					map[string]interface{}{"title": "Talk:Testing", "ns": 1},
				},
			},
		})
	})

	refs, err := client.RedirectsTo(context.Background(), "Test", nil)
	if err != nil {
		t.Fatalf("RedirectsTo: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len = %d, want 2", len(refs))
	}
	if refs[0].Title != "Testing" || refs[0].Namespace != 0 {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].Title != "Talk:Testing" || refs[1].Namespace != 1 {
		t.Errorf("refs[1] = %+v", refs[1])
	}
}

func TestRedirectsToNamespaceFilter(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("blnamespace") != "0|10" {
			t.Errorf("blnamespace = %q, want 0|10", r.Form.Get("blnamespace"))
		}
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{"backlinks": []interface{}{}},
		})
	})

	if _, err := client.RedirectsTo(context.Background(), "Test", []int{0, 10}); err != nil {
		t.Fatalf("RedirectsTo: %v", err)
	}
}

func TestRedirectsToContinuation(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if atomic.AddInt32(&calls, 1) == 1 {
			if r.Form.Get("blcontinue") != "" {
				t.Error("first request should carry no continuation token")
			}
			writeJSON(t, w, map[string]interface{}{
				"continue": map[string]interface{}{"blcontinue": "0|Next"},
				"query": map[string]interface{}{
					"backlinks": []interface{}{
						map[string]interface{}{"title": "First", "ns": 0},
					},
				},
			})
			return
		}
		if r.Form.Get("blcontinue") != "0|Next" {
			t.Errorf("blcontinue = %q, want 0|Next", r.Form.Get("blcontinue"))
		}
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"backlinks": []interface{}{
					map[string]interface{}{"title": "Second", "ns": 0},
				},
			},
		})
	})

	refs, err := client.RedirectsTo(context.Background(), "Test", nil)
	if err != nil {
		t.Fatalf("RedirectsTo: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len = %d, want 2 (continuation followed)", len(refs))
	}
	if refs[0].Title != "First" || refs[1].Title != "Second" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestTranscludedTemplates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("prop") != "templates" {
			t.Errorf("prop = %q, want templates", r.Form.Get("prop"))
		}
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"1": map[string]interface{}{
						"pageid": 1, "ns": 0, "title": "Test",
						"templates": []interface{}{
							map[string]interface{}{"title": "Template:Infobox", "ns": 10},
							map[string]interface{}{"title": "Template:Stub", "ns": 10},
						},
					},
				},
			},
		})
	})

	refs, err := client.TranscludedTemplates(context.Background(), "Test")
	if err != nil {
		t.Fatalf("TranscludedTemplates: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len = %d, want 2", len(refs))
	}
	if refs[0].Title != "Template:Infobox" || refs[0].Namespace != 10 {
		t.Errorf("refs[0] = %+v", refs[0])
	}
}

func TestPageText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"1": map[string]interface{}{
						"pageid": 1, "ns": 0, "title": "Test",
						"revisions": []interface{}{
							map[string]interface{}{
								"slots": map[string]interface{}{
									"main": map[string]interface{}{"*": "wikitext body"},
								},
							},
						},
					},
				},
			},
		})
	})

	text, err := client.PageText(context.Background(), "Test")
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if text != "wikitext body" {
		t.Errorf("text = %q, want wikitext body", text)
	}
}

func TestPageTextLegacyFormat(t *testing.T) {
	// Older wikis place the content directly under "*" on the revision.
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"1": map[string]interface{}{
						"pageid": 1, "ns": 0, "title": "Test",
						"revisions": []interface{}{
							map[string]interface{}{"*": "legacy body"},
						},
					},
				},
			},
		})
	})

	text, err := client.PageText(context.Background(), "Test")
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if text != "legacy body" {
		t.Errorf("text = %q, want legacy body", text)
	}
}

func TestPageTextMissing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"-1": map[string]interface{}{
						"ns": 0, "title": "Gone", "missing": "",
					},
				},
			},
		})
	})

	_, err := client.PageText(context.Background(), "Gone")
	if !IsPageMissing(err) {
		t.Fatalf("err = %v, want PageMissingError", err)
	}
}

func TestNamespaceKey(t *testing.T) {
	if namespaceKey(nil) != "all" {
		t.Errorf("namespaceKey(nil) = %q, want all", namespaceKey(nil))
	}
	if namespaceKey([]int{0, 10}) != "0|10" {
		t.Errorf("namespaceKey = %q, want 0|10", namespaceKey([]int{0, 10}))
	}
}
