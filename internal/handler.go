package internal

// Handler declares routes on a router. Controllers group routes that share
// a layout.
//
// Example:
//
//	type PostsHandler struct {
//	    posts *store.Posts
//	}
//
//	func (h *PostsHandler) Routes(r stagehand.Router) {
//	    r.GET("/posts", h.index, middlewares.Provides(view.HTML, view.JSON))
//	    r.Controller("admin", func(r stagehand.Router) {
//	        r.Layout("admin")
//	        r.GET("/admin/posts", h.manage)
//	    })
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc handles a request. A returned error goes to the app's error
// handler, which maps it to a status with ToHTTPError.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc. It runs before the render state is read,
// so it may set the format or locale for the views below it.
//
// Example:
//
//	func PrintFormat(next stagehand.HandlerFunc) stagehand.HandlerFunc {
//	    return func(c stagehand.Context) error {
//	        if c.Query("print") != "" {
//	            c.ContentType(view.Text)
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error
