// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

// The CLI reconfigures the global logger, so these tests do not run in
// parallel.

// writeFixture lays out three movies and returns a config file path.
//
// Users 10 and 11 agree on movies 1 and 2 (similarity 1); user 12
// disagrees with 10 (similarity -1). Movie 3 is unseen by user 10.
func writeFixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	src := filepath.Join(root, "training_set")
	if err := os.Mkdir(src, 0o750); err != nil {
		t.Fatal(err)
	}
	movies := map[string]string{
		"mv_0000001.txt": "1:\n10,5,2005-01-01\n11,4,2005-01-02\n12,1,2005-01-03\n",
		"mv_0000002.txt": "2:\n10,3,2005-01-01\n11,3,2005-01-02\n12,5,2005-01-03\n",
		"mv_0000003.txt": "3:\n11,5,2005-02-01\n12,2,2005-02-02\n",
	}
	for name, body := range movies {
		if err := os.WriteFile(filepath.Join(src, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	cfgPath := filepath.Join(root, "config.yaml")
	cfg := fmt.Sprintf(`dataset:
  provider: json
  json_dir: %q
  source_dir: %q
  test_probability: 0
logging:
  level: error
`, filepath.Join(root, "res"), src)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"no args", nil, exitUsage, "Commands:"},
		{"help", []string{"help"}, exitOK, "recommend"},
		{"unknown command", []string{"bogus"}, exitUsage, `unknown command "bogus"`},
		{"bad flag", []string{"neighbors", "-k", "x"}, exitUsage, "invalid value"},
		{"subcommand help", []string{"evaluate", "-h"}, exitOK, "-users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want empty", stdout)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantErr)
			}
		})
	}
}

func TestRun_Prepare(t *testing.T) {
	cfg := writeFixture(t)

	code, stdout, stderr := runCLI(t, "prepare", "-config", cfg)
	if code != exitOK {
		t.Fatalf("prepare exit = %d, stderr: %s", code, stderr)
	}
	var got struct {
		Provider string `json:"provider"`
		Report   struct {
			Loaded       bool `json:"loaded"`
			TrainRatings int  `json:"train_ratings"`
		} `json:"report"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if got.Provider != "json" || got.Report.Loaded || got.Report.TrainRatings != 8 {
		t.Errorf("prepare output = %+v, want a fresh json build with 8 train ratings", got)
	}

	// The split is stored now, so a second run loads it.
	code, stdout, _ = runCLI(t, "prepare", "-config", cfg)
	if code != exitOK || !strings.Contains(stdout, `"loaded": true`) {
		t.Errorf("second prepare = %d %s, want loaded split", code, stdout)
	}
}

func TestRun_PrepareOverridesRebuild(t *testing.T) {
	cfg := writeFixture(t)

	type output struct {
		Report struct {
			Loaded       bool `json:"loaded"`
			TrainRatings int  `json:"train_ratings"`
			TestRatings  int  `json:"test_ratings"`
		} `json:"report"`
	}
	prepare := func(args ...string) output {
		t.Helper()
		code, stdout, stderr := runCLI(t, append([]string{"prepare", "-config", cfg}, args...)...)
		if code != exitOK {
			t.Fatalf("prepare %v exit = %d, stderr: %s", args, code, stderr)
		}
		var got output
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("decode %q: %v", stdout, err)
		}
		return got
	}

	first := prepare("-seed", "1", "-test-probability", "0")
	if first.Report.Loaded || first.Report.TrainRatings != 8 || first.Report.TestRatings != 0 {
		t.Fatalf("first prepare = %+v, want 8 train / 0 test", first.Report)
	}

	// Every rating goes to test, so the stored split must be replaced.
	second := prepare("-seed", "99", "-test-probability", "1")
	if second.Report.Loaded || second.Report.TrainRatings != 0 || second.Report.TestRatings != 8 {
		t.Errorf("override prepare = %+v, want a rebuild with 0 train / 8 test", second.Report)
	}

	third := prepare()
	if !third.Report.Loaded || third.Report.TestRatings != 8 {
		t.Errorf("plain prepare = %+v, want the rebuilt split loaded", third.Report)
	}

	forced := prepare("-rebuild")
	if forced.Report.Loaded || forced.Report.TrainRatings != 8 {
		t.Errorf("-rebuild prepare = %+v, want a fresh build from the config settings", forced.Report)
	}
}

func TestRun_Similarity(t *testing.T) {
	cfg := writeFixture(t)

	tests := []struct {
		a, b string
		want float64
	}{
		{"10", "11", 1},
		{"10", "12", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"-"+tt.b, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "similarity", "-config", cfg, tt.a, tt.b)
			if code != exitOK {
				t.Fatalf("exit = %d, stderr: %s", code, stderr)
			}
			var got struct {
				Similarity float64 `json:"similarity"`
			}
			if err := json.Unmarshal([]byte(stdout), &got); err != nil {
				t.Fatal(err)
			}
			if math.Abs(got.Similarity-tt.want) > 1e-9 {
				t.Errorf("similarity = %v, want %v", got.Similarity, tt.want)
			}
		})
	}
}

func TestRun_Recommend(t *testing.T) {
	cfg := writeFixture(t)

	code, stdout, stderr := runCLI(t, "recommend", "-config", cfg, "-scores", "10")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, stderr)
	}
	var got struct {
		Items  []string `json:"items"`
		Scored []struct {
			Item  string  `json:"item_id"`
			Score float64 `json:"score"`
		} `json:"scored"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 1 || got.Items[0] != "3" {
		t.Errorf("items = %v, want [3]", got.Items)
	}
	if len(got.Scored) != 1 {
		t.Errorf("scored = %+v, want one entry", got.Scored)
	}
}

func TestRun_Neighbors(t *testing.T) {
	cfg := writeFixture(t)

	code, stdout, stderr := runCLI(t, "neighbors", "-config", cfg, "-min-similarity", "-1", "10")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, `"11"`) {
		t.Errorf("neighbors = %s, want user 11", stdout)
	}
	// The threshold is exclusive, so the -1 neighbor is dropped.
	if strings.Contains(stdout, `"12"`) {
		t.Errorf("neighbors = %s, should not contain user 12", stdout)
	}
}

func TestRun_Errors(t *testing.T) {
	cfg := writeFixture(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"missing args", []string{"similarity", "-config", cfg, "10"}, exitUsage, "expected 2 argument(s)"},
		{"bad user id", []string{"recommend", "-config", cfg, "bad id!"}, exitUsage, "usage error"},
		{"bad threshold", []string{"neighbors", "-config", cfg, "-min-similarity", "2", "10"}, exitUsage, "usage error"},
		{"unknown user", []string{"recommend", "-config", cfg, "999"}, exitError, "999"},
		{"bad override", []string{"prepare", "-config", cfg, "-test-probability", "1.5"}, exitError, "test_probability"},
		{"missing config", []string{"prepare", "-config", filepath.Join(t.TempDir(), "nope.yaml")}, exitError, "failed to load config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantErr)
			}
		})
	}
}

func TestSplitUsers(t *testing.T) {
	t.Parallel()

	got := splitUsers(" 1, 2,,3 ")
	if len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Errorf("splitUsers = %v, want [1 2 3]", got)
	}
	if splitUsers("") != nil {
		t.Error("splitUsers(\"\") should be nil")
	}
}
