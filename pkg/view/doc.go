// Package view renders templates by logical name with format, locale and
// layout resolution.
//
// Template files follow the naming scheme
//
//	name[.locale][.format].ext
//
// where ext selects the engine (tmpl, gotext, md, sgo) and the optional
// segments restrict the file to a format and a locale. A file without a
// format segment serves html.
//
// # Resolution
//
// A render call resolves a list of candidate formats and locales once:
//
//   - formats: the explicit format, else the negotiated or active format,
//     followed by html unless strict format mode is on;
//   - locales: the active locale followed by the locale-agnostic variant.
//
// The Locator then walks roots, formats, locales and engine extensions in
// that order and returns the first existing file. Files ending in a backup
// suffix ("~" by default) are ignored.
//
// # Layouts
//
// The view is wrapped in a layout chosen by the first of: the per-call
// override (WithLayout, WithoutLayout), the innermost LayoutScope
// declaration, the "application" default. An override that cannot be found
// is an error. A scope layout or the default that has no file for the
// view's format is skipped, so a json view under a controller with an html
// layout renders bare. Layouts live under "layouts/" in the view roots and
// are located with the view's format.
//
// # Usage
//
//	r, err := view.New(view.WithDir("views"))
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	st := view.NewState()
//	st.Locale = "en"
//	res, err := r.Render(ctx, st, "users/index", data)
//
// Templates reach the layout slot and nested renders through the yield and
// render functions:
//
//	<body>{{ yield }}</body>
//	{{ render "users/_row" . }}
package view
