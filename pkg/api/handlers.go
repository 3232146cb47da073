package api

import (
	"net/http"

	"github.com/matzehuels/pacstage/pkg/arch"
	"github.com/matzehuels/pacstage/pkg/buildinfo"
	pserrors "github.com/matzehuels/pacstage/pkg/errors"
	"github.com/matzehuels/pacstage/pkg/render"
)

type namesRequest struct {
	Names []string `json:"names"`
}

type knownRequest struct {
	Packages []string `json:"packages"` // "repo/name"
	Expand   bool     `json:"expand"`
}

type knownResponse struct {
	Packages []arch.Ref `json:"packages"`
}

type orderRequest struct {
	Packages []arch.Package `json:"packages"`
}

type downloadResponse struct {
	Downloaded int `json:"downloaded"`
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func versionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Get())
	}
}

func missingHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req namesRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		names := make([]string, len(req.Names))
		for i, spec := range req.Names {
			names[i] = arch.DepName(spec)
		}
		if err := pserrors.ValidatePackageNames(names); err != nil {
			writeError(w, err)
			return
		}

		res, err := s.Resolver.ResolveMissing(r.Context(), req.Names, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		if res.Missing == nil {
			res.Missing = []arch.Ref{}
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func knownHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req knownRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if len(req.Packages) == 0 {
			writeError(w, pserrors.New(pserrors.ErrCodeInvalidInput, "at least one package is required"))
			return
		}
		refs := make([]arch.Ref, 0, len(req.Packages))
		for _, p := range req.Packages {
			ref, err := arch.ParseRef(p)
			if err != nil {
				writeError(w, pserrors.Wrap(pserrors.ErrCodeInvalidPackage, err, "%v", err))
				return
			}
			if err := pserrors.ValidatePackageName(ref.Name); err != nil {
				writeError(w, err)
				return
			}
			refs = append(refs, ref)
		}

		out, err := s.Resolver.ResolveKnown(r.Context(), refs, req.Expand)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, knownResponse{Packages: out})
	}
}

// orderHandler answers with JSON, or with a diagram when the format query
// parameter is "dot" or "svg".
func orderHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		switch format {
		case "", "json", "dot", "svg":
		default:
			writeError(w, pserrors.New(pserrors.ErrCodeInvalidFormat, "unsupported format %q", format))
			return
		}

		var req orderRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		names := make([]string, len(req.Packages))
		for i, p := range req.Packages {
			names[i] = p.Name
		}
		if err := pserrors.ValidatePackageNames(names); err != nil {
			writeError(w, err)
			return
		}

		order, err := s.Sorter.Sort(r.Context(), req.Packages)
		if err != nil {
			writeError(w, err)
			return
		}

		switch format {
		case "dot":
			w.Header().Set("Content-Type", "text/vnd.graphviz")
			_, _ = w.Write([]byte(render.ToDOT(order.DAG(), render.Options{Detailed: true})))
		case "svg":
			svg, err := render.RenderSVG(r.Context(), render.ToDOT(order.DAG(), render.Options{}))
			if err != nil {
				writeError(w, pserrors.Wrap(pserrors.ErrCodeInternal, err, "render order"))
				return
			}
			w.Header().Set("Content-Type", "image/svg+xml")
			_, _ = w.Write(svg)
		default:
			writeJSON(w, http.StatusOK, order)
		}
	}
}

func downloadHandler(s Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Downloader == nil {
			writeError(w, pserrors.New(pserrors.ErrCodeUnsupported, "downloads are disabled"))
			return
		}
		var req namesRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := pserrors.ValidatePackageNames(req.Names); err != nil {
			writeError(w, err)
			return
		}

		n, err := s.Downloader.DownloadPackages(r.Context(), req.Names)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, downloadResponse{Downloaded: n})
	}
}
