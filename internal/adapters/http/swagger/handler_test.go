package swagger_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/meritor/internal/adapters/http/swagger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSwaggerRoutes(t *testing.T) {
	Convey("Given the documentation routes", t, func() {
		mux := http.NewServeMux()
		swagger.Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		Convey("the OpenAPI document is embedded and served as YAML", func() {
			resp, err := http.Get(ts.URL + "/openapi.yaml")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "yaml")

			raw, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, "openapi: 3.0.3")
			So(string(raw), ShouldContainSubstring, "/ratings")
		})

		Convey("the viewer page points at the document", func() {
			resp, err := http.Get(ts.URL + "/api-docs")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "text/html")

			raw, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, "/openapi.yaml")
		})

		Convey("registering on a nil mux panics", func() {
			So(func() { swagger.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}
