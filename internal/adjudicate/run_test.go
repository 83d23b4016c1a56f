package adjudicate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/entity-resolver/internal/normalize"
)

func request(id1, id2 string, score float64) Request {
	return Request{
		Record1: normalize.Record{ID: id1, Name: "Name " + id1, Address: "1 Main St"},
		Record2: normalize.Record{ID: id2, Name: "Name " + id2, Address: "1 Main St"},
		Score:   score,
	}
}

func TestRunCollectsDecisionsAndFailures(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	oracle := OracleFunc(func(_ context.Context, req Request) (bool, error) {
		calls++
		switch req.Record2.ID {
		case "2":
			return true, nil
		case "3":
			return false, boom
		default:
			return false, nil
		}
	})

	requests := []Request{request("1", "2", 0.7), request("1", "3", 0.65), request("2", "4", 0.8)}
	res, err := Run(context.Background(), oracle, requests, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if calls != 3 {
		t.Errorf("oracle called %d times, want 3 (no retries)", calls)
	}
	if len(res.Decisions) != 2 {
		t.Fatalf("got %d decisions, want 2", len(res.Decisions))
	}
	if !res.Decisions[0].Merge || res.Decisions[0].Record2.ID != "2" {
		t.Errorf("Decisions[0] = %+v, want merge of 1/2", res.Decisions[0])
	}
	if res.Decisions[1].Merge || res.Decisions[1].Record2.ID != "4" {
		t.Errorf("Decisions[1] = %+v, want no-merge of 2/4", res.Decisions[1])
	}
	if len(res.Failures) != 1 || res.Failures[0].Record2.ID != "3" || !errors.Is(res.Failures[0].Err, boom) {
		t.Errorf("Failures = %+v, want the 1/3 pair with boom", res.Failures)
	}
}

func TestRunCancelledKeepsEveryPair(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	oracle := OracleFunc(func(_ context.Context, _ Request) (bool, error) {
		cancel()
		return true, nil
	})

	requests := []Request{request("1", "2", 0.7), request("3", "4", 0.7), request("5", "6", 0.7)}
	res, err := Run(ctx, oracle, requests, Options{RatePerSecond: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if got := len(res.Decisions) + len(res.Failures); got != len(requests) {
		t.Errorf("decisions+failures = %d, want %d", got, len(requests))
	}
	if len(res.Decisions) != 1 {
		t.Errorf("got %d decisions, want 1", len(res.Decisions))
	}
	for _, f := range res.Failures {
		if !errors.Is(f.Err, context.Canceled) {
			t.Errorf("failure %s/%s err = %v, want context.Canceled", f.Record1.ID, f.Record2.ID, f.Err)
		}
	}
}

func TestRunEmpty(t *testing.T) {
	res, err := Run(context.Background(), OracleFunc(func(context.Context, Request) (bool, error) {
		t.Fatal("oracle should not be called")
		return false, nil
	}), nil, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Decisions == nil || res.Failures == nil {
		t.Errorf("empty result should hold non-nil slices: %+v", res)
	}
}

func TestDecisionJSON(t *testing.T) {
	data, err := json.Marshal(Decision{Request: request("14", "15", 0.72), Merge: true})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"record_1", "record_2", "score", "merge"} {
		if _, ok := got[key]; !ok {
			t.Errorf("decision JSON %s lacks %q", data, key)
		}
	}
	if got["merge"] != true {
		t.Errorf("merge = %v, want true", got["merge"])
	}
}

func TestFailureJSON(t *testing.T) {
	data, err := json.Marshal(Failure{Request: request("1", "2", 0.7), Err: errors.New("timeout")})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	for _, want := range []string{`"record_1"`, `"record_2"`, `"score":0.7`, `"error":"timeout"`} {
		if !strings.Contains(s, want) {
			t.Errorf("failure JSON %s lacks %s", s, want)
		}
	}
}
