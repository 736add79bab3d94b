package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"assetcatalog/internal/catalog"
	"assetcatalog/internal/constants"
	"assetcatalog/internal/sanitize"
)

// streamFile copies resolved's content to w in DownloadChunkSize pieces,
// labeling the response with a sanitized Content-Disposition.
func streamFile(w http.ResponseWriter, r *http.Request, resolved *catalog.ResolvedContent) {
	f, err := os.Open(resolved.AbsPath)
	if err != nil {
		WriteError(w, http.StatusNotFound, constants.ErrCodeFileNotFound, "asset content is not currently accessible", nil)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, constants.ErrCodeInternalError, "failed to stat asset content", nil)
		return
	}

	disposition := "attachment"
	if r.URL.Query().Get("disposition") == "inline" {
		disposition = "inline"
	}

	name := sanitize.ContentDispositionFilename(resolved.DownloadName)
	if name == "" {
		name = "download"
	}

	w.Header().Set(constants.HeaderContentType, resolved.ContentType)
	w.Header().Set(constants.HeaderContentDisposition, fmt.Sprintf(`%s; filename="%s"`, disposition, name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", stat.Size()))
	w.WriteHeader(http.StatusOK)

	buf := make([]byte, constants.DownloadChunkSize)
	io.CopyBuffer(w, f, buf)
}

// jsonUnmarshalStrict decodes the first JSON value in raw into v. Unknown
// fields and trailing data are not rejected.
func jsonUnmarshalStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	return dec.Decode(v)
}
