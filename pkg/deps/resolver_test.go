package deps

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/pacstage/pkg/arch"
	pserrors "github.com/matzehuels/pacstage/pkg/errors"
	"github.com/matzehuels/pacstage/pkg/pacman"
)

var (
	core  = arch.RepoOf("core")
	extra = arch.RepoOf("extra")
)

func refs(pairs ...string) []arch.Ref {
	out := make([]arch.Ref, 0, len(pairs))
	for _, p := range pairs {
		ref, err := arch.ParseRef(p)
		if err != nil {
			panic(err)
		}
		out = append(out, ref)
	}
	return out
}

func indexOf(list []arch.Ref, name string) int {
	for i, r := range list {
		if r.Name == name {
			return i
		}
	}
	return -1
}

func TestResolveMissingSingle(t *testing.T) {
	repo := &fakeRepo{repos: map[string]string{"pkgA": "extra"}}
	r := NewResolver(repo, nil, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"pkgA"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	if !res.Checked {
		t.Error("Checked = false, want true")
	}
	if want := refs("extra/pkgA"); !reflect.DeepEqual(res.Missing, want) {
		t.Errorf("Missing = %v, want %v", res.Missing, want)
	}
}

func TestResolveMissingNothingToCheck(t *testing.T) {
	repo := &fakeRepo{}
	r := NewResolver(repo, nil, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"a", "b"}, NewInAnalysis("a", "b"))
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	if res.Checked || len(res.Missing) != 0 {
		t.Errorf("Result = %+v, want unchecked and empty", res)
	}
	if n := repo.checkCount(); n != 0 {
		t.Errorf("CheckMissing called %d times, want 0", n)
	}

	res, err = r.ResolveMissing(context.Background(), nil, nil)
	if err != nil || res.Checked {
		t.Errorf("ResolveMissing(nil) = %+v, %v", res, err)
	}
}

func TestResolveMissingAllInstalled(t *testing.T) {
	repo := &fakeRepo{installed: map[string]bool{"glibc": true}}
	r := NewResolver(repo, nil, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"glibc>=2.38"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	if !res.Checked || len(res.Missing) != 0 {
		t.Errorf("Result = %+v, want checked and empty", res)
	}
}

func TestResolveMissingTransitive(t *testing.T) {
	repo := &fakeRepo{
		installed: map[string]bool{"glibc": true},
		repos:     map[string]string{"a": "extra", "b": "extra", "c": "core"},
		deps: map[string][]string{
			"a": {"b>=1", "glibc"},
			"b": {"c"},
		},
	}
	r := NewResolver(repo, nil, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"a"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	want := refs("core/c", "extra/b", "extra/a")
	if !reflect.DeepEqual(res.Missing, want) {
		t.Errorf("Missing = %v, want %v", res.Missing, want)
	}
}

func TestResolveMissingOrdersAcrossRoots(t *testing.T) {
	repo := &fakeRepo{
		repos: map[string]string{"a": "extra", "b": "extra", "c": "extra"},
		deps: map[string][]string{
			"a": {"c"},
			"c": {"b"},
		},
	}
	r := NewResolver(repo, nil, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	if len(res.Missing) != 3 {
		t.Fatalf("Missing = %v, want 3 entries", res.Missing)
	}
	if !(indexOf(res.Missing, "b") < indexOf(res.Missing, "c") && indexOf(res.Missing, "c") < indexOf(res.Missing, "a")) {
		t.Errorf("Missing = %v, want b before c before a", res.Missing)
	}
}

func TestResolveMissingCycle(t *testing.T) {
	repo := &fakeRepo{
		repos: map[string]string{"a": "extra", "b": "extra"},
		deps: map[string][]string{
			"a": {"b"},
			"b": {"a"},
		},
	}
	r := NewResolver(repo, nil, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"a"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	if len(res.Missing) != 2 || indexOf(res.Missing, "a") < 0 || indexOf(res.Missing, "b") < 0 {
		t.Errorf("Missing = %v, want a and b once each", res.Missing)
	}
}

func TestResolveMissingNoDuplicates(t *testing.T) {
	repo := &fakeRepo{
		repos: map[string]string{"a": "extra", "b": "extra", "shared": "core"},
		deps: map[string][]string{
			"a": {"shared"},
			"b": {"shared>=1"},
		},
	}
	r := NewResolver(repo, nil, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"a", "b", "a"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	seen := make(map[string]bool)
	for _, ref := range res.Missing {
		if seen[ref.Name] {
			t.Fatalf("duplicate %s in %v", ref.Name, res.Missing)
		}
		seen[ref.Name] = true
	}
	if len(res.Missing) != 3 || indexOf(res.Missing, "shared") != 0 {
		t.Errorf("Missing = %v, want shared first of 3", res.Missing)
	}
}

func TestResolveMissingUnresolved(t *testing.T) {
	repo := &fakeRepo{
		repos: map[string]string{"a": "extra", "b": "extra"},
		deps: map[string][]string{
			"a": {"b"},
			"b": {"ghost>=2"},
		},
	}
	r := NewResolver(repo, &fakeAUR{}, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"a"}, nil)
	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want *UnresolvedError", err)
	}
	if unresolved.Name != "ghost" || unresolved.RequiredBy != "b" {
		t.Errorf("UnresolvedError = %+v", unresolved)
	}
	if !errors.Is(err, ErrUnresolved) {
		t.Error("errors.Is(err, ErrUnresolved) = false")
	}
	if !pserrors.Is(err, pserrors.ErrCodeUnresolved) {
		t.Error("error code is not UNRESOLVED_DEPENDENCY")
	}
	if len(res.Missing) != 0 {
		t.Errorf("partial result returned: %v", res.Missing)
	}
}

func TestResolveMissingProvider(t *testing.T) {
	repo := &fakeRepo{
		repos: map[string]string{"bash": "core"},
		providers: map[string][]pacman.Info{
			"sh": {
				{Repository: "extra", Name: "zsh", Version: "5.9-5"},
				{Repository: "core", Name: "bash", Version: "5.2-2", Provides: []string{"sh"}},
			},
		},
		deps:      map[string][]string{"bash": {"readline"}},
		installed: map[string]bool{"readline": true},
	}
	r := NewResolver(repo, nil, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"sh"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	if want := refs("core/bash"); !reflect.DeepEqual(res.Missing, want) {
		t.Errorf("Missing = %v, want %v", res.Missing, want)
	}
}

func javaRepo() *fakeRepo {
	return &fakeRepo{
		repos: map[string]string{"maven": "extra", "jdk-openjdk": "extra", "jdk17-openjdk": "extra"},
		deps:  map[string][]string{"maven": {"java-environment"}},
		providers: map[string][]pacman.Info{
			"java-environment": {
				{Repository: "extra", Name: "jdk-openjdk", Version: "21-1", Provides: []string{"java-environment=21"}},
				{Repository: "extra", Name: "jdk17-openjdk", Version: "17-1", Provides: []string{"java-environment=17"}},
			},
		},
	}
}

func TestResolveMissingChooser(t *testing.T) {
	chooser := &fakeChooser{pick: 1}
	r := NewResolver(javaRepo(), nil, Options{Chooser: chooser})

	res, err := r.ResolveMissing(context.Background(), []string{"maven"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	if want := refs("extra/jdk17-openjdk", "extra/maven"); !reflect.DeepEqual(res.Missing, want) {
		t.Errorf("Missing = %v, want %v", res.Missing, want)
	}
	want := [][]string{{"jdk-openjdk 21-1 (extra)", "jdk17-openjdk 17-1 (extra)"}}
	if !reflect.DeepEqual(chooser.asked, want) {
		t.Errorf("asked %v, want %v", chooser.asked, want)
	}
}

func TestResolveMissingChooserDeclined(t *testing.T) {
	r := NewResolver(javaRepo(), nil, Options{Chooser: &fakeChooser{pick: -1}})

	_, err := r.ResolveMissing(context.Background(), []string{"maven"}, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("error = %v, want ErrCancelled", err)
	}
}

func TestChooseProviderRemembersAnswer(t *testing.T) {
	chooser := &fakeChooser{pick: 1}
	r := NewResolver(javaRepo(), nil, Options{Chooser: chooser})
	dep := arch.ParseDep("java-environment")
	candidates := javaRepo().providers["java-environment"]

	for range 2 {
		p, ok, err := r.chooseProvider(dep, candidates)
		if err != nil || !ok || p.Name != "jdk17-openjdk" {
			t.Fatalf("chooseProvider = %q, %v, %v", p.Name, ok, err)
		}
	}
	if len(chooser.asked) != 1 {
		t.Errorf("asked %d times, want 1", len(chooser.asked))
	}

	// A single qualifying provider needs no question.
	if p, _, _ := r.chooseProvider(arch.ParseDep("java-environment=21"), candidates); p.Name != "jdk-openjdk" {
		t.Errorf("constrained choice = %q, want jdk-openjdk", p.Name)
	}
	if len(chooser.asked) != 1 {
		t.Errorf("asked %d times, want 1", len(chooser.asked))
	}
}

func TestResolveMissingAUR(t *testing.T) {
	repo := &fakeRepo{repos: map[string]string{"go": "extra"}}
	aurSrc := &fakeAUR{recipes: map[string]string{"yay": recipe("yay", "go", "pacman>6")}}
	repo.installed = map[string]bool{"pacman": true}
	r := NewResolver(repo, aurSrc, Options{})

	res, err := r.ResolveMissing(context.Background(), []string{"yay"}, nil)
	if err != nil {
		t.Fatalf("ResolveMissing error: %v", err)
	}
	want := []arch.Ref{{Name: "go", Repo: extra}, {Name: "yay", Repo: arch.AUR}}
	if !reflect.DeepEqual(res.Missing, want) {
		t.Errorf("Missing = %v, want %v", res.Missing, want)
	}

	noAUR := NewResolver(repo, nil, Options{})
	if _, err := noAUR.ResolveMissing(context.Background(), []string{"yay"}, nil); !errors.Is(err, ErrUnresolved) {
		t.Errorf("without AUR error = %v, want ErrUnresolved", err)
	}
}

func TestResolveMissingMaxDepth(t *testing.T) {
	repo := &fakeRepo{
		repos: map[string]string{"a": "extra", "b": "extra", "c": "extra", "d": "extra"},
		deps: map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"d"},
		},
	}
	r := NewResolver(repo, nil, Options{MaxDepth: 2})

	if _, err := r.ResolveMissing(context.Background(), []string{"a"}, nil); !errors.Is(err, ErrMaxDepth) {
		t.Errorf("error = %v, want ErrMaxDepth", err)
	}
}

func TestResolveMissingSharedInAnalysis(t *testing.T) {
	repo := &fakeRepo{
		repos: map[string]string{"a": "extra", "b": "extra", "lib": "core"},
		deps: map[string][]string{
			"a": {"lib"},
			"b": {"lib"},
		},
	}
	r := NewResolver(repo, nil, Options{})
	seen := NewInAnalysis()

	first, err := r.ResolveMissing(context.Background(), []string{"a"}, seen)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.ResolveMissing(context.Background(), []string{"b"}, seen)
	if err != nil {
		t.Fatal(err)
	}
	if indexOf(first.Missing, "lib") < 0 {
		t.Errorf("first = %v, want lib", first.Missing)
	}
	if indexOf(second.Missing, "lib") >= 0 {
		t.Errorf("second = %v, lib should not be expanded twice", second.Missing)
	}
}

func TestResolveKnown(t *testing.T) {
	repo := &fakeRepo{
		repos: map[string]string{"foo": "extra", "bar": "core", "go": "extra"},
		deps: map[string][]string{
			"foo": {"bar"},
		},
	}
	aurSrc := &fakeAUR{recipes: map[string]string{"yay": recipe("yay", "go", "foo")}}
	r := NewResolver(repo, aurSrc, Options{})
	known := []arch.Ref{{Name: "yay", Repo: arch.AUR}, {Name: "foo", Repo: extra}, {Name: "foo", Repo: extra}}

	got, err := r.ResolveKnown(context.Background(), known, true)
	if err != nil {
		t.Fatalf("ResolveKnown error: %v", err)
	}
	want := []arch.Ref{
		{Name: "bar", Repo: core},
		{Name: "go", Repo: extra},
		{Name: "foo", Repo: extra},
		{Name: "yay", Repo: arch.AUR},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveKnown = %v, want %v", got, want)
	}

	got, err = r.ResolveKnown(context.Background(), known, false)
	if err != nil {
		t.Fatalf("ResolveKnown error: %v", err)
	}
	if want := want[2:]; !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveKnown(no expand) = %v, want %v", got, want)
	}
}

func TestResolveKnownUnresolved(t *testing.T) {
	r := NewResolver(&fakeRepo{}, nil, Options{})
	if _, err := r.ResolveKnown(context.Background(), []arch.Ref{{Name: "x"}}, false); !errors.Is(err, ErrUnresolved) {
		t.Errorf("error = %v, want ErrUnresolved", err)
	}

	repo := &fakeRepo{
		repos: map[string]string{"foo": "extra"},
		deps:  map[string][]string{"foo": {"ghost"}},
	}
	r = NewResolver(repo, nil, Options{})
	_, err := r.ResolveKnown(context.Background(), []arch.Ref{{Name: "foo", Repo: extra}}, true)
	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) || unresolved.Name != "ghost" || unresolved.RequiredBy != "foo" {
		t.Errorf("error = %v, want ghost required by foo", err)
	}
}

func TestInAnalysisClaim(t *testing.T) {
	s := NewInAnalysis("seeded")
	if s.Claim("seeded") {
		t.Error("Claim of seeded name succeeded")
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Claim("contested") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("%d claims won, want 1", wins.Load())
	}
	if !s.Contains("contested") || s.Len() != 2 {
		t.Errorf("Contains/Len = %v/%d", s.Contains("contested"), s.Len())
	}
}

func TestSelectProvider(t *testing.T) {
	candidates := []pacman.Info{
		{Repository: "extra", Name: "jdk-openjdk", Version: "21-1", Provides: []string{"java-environment=21"}},
		{Repository: "extra", Name: "jdk17-openjdk", Version: "17-1", Provides: []string{"java-environment=17"}},
		{Repository: "community", Name: "java-environment", Version: "1-1"},
	}

	tests := []struct {
		spec string
		want string
		ok   bool
	}{
		{"java-environment", "java-environment", true},
		{"java-environment>=17", "jdk-openjdk", true},
		{"java-environment<18", "java-environment", true},
		{"java-environment=17", "jdk17-openjdk", true},
		{"java-environment>30", "", false},
		{"python", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, ok := SelectProvider(arch.ParseDep(tt.spec), candidates)
			if ok != tt.ok || got.Name != tt.want {
				t.Errorf("SelectProvider(%q) = %q, %v, want %q, %v", tt.spec, got.Name, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestConfirmMissing(t *testing.T) {
	missing := []arch.Ref{{Name: "go", Repo: extra}}

	w := &fakeWatcher{approve: true}
	if err := ConfirmMissing(w, "yay", missing); err != nil {
		t.Errorf("approved: %v", err)
	}
	if len(w.asked) != 1 {
		t.Fatalf("asked %d times, want 1", len(w.asked))
	}

	w = &fakeWatcher{}
	err := ConfirmMissing(w, "yay", missing)
	if !errors.Is(err, ErrCancelled) || !pserrors.Is(err, pserrors.ErrCodeCancelled) {
		t.Errorf("declined: %v, want ErrCancelled", err)
	}

	w = &fakeWatcher{}
	if err := ConfirmMissing(w, "yay", nil); err != nil || len(w.asked) != 0 {
		t.Errorf("empty list asked %d times, err %v", len(w.asked), err)
	}
}
