/*
Package errors provides semantic error types for the entitycache library.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound      = errors.New("entity not found")
	    ErrAlreadyExists = errors.New("entity already exists")
	    ErrInvalidInput  = errors.New("invalid input")
	    ErrLoadFailed    = errors.New("loader failed")
	    ErrNoLoader      = errors.New("no loader configured")
	    ErrPatchFailed   = errors.New("patch failed")
	    ErrNoIndexMap    = errors.New("no index map found for store")
	)

Usage:

	book, err := books.Fetch(ctx, "dracula")
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("book %s does not exist", "dracula")
	    }
	    var le *errors.LoadError
	    if stderrors.As(err, &le) {
	        // le.Err is what the loader returned
	    }
	    return nil, err
	}

	// Create typed errors
	err := errors.NewNotFoundError("books", "dracula")
	err := errors.NewValidationError("id", "missing primary key")
	err := errors.NewLoadError("books", "fetch", "dracula", cause)

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
