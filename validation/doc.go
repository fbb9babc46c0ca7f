// Package validation decodes and checks request input. Failures become
// INVALID_INPUT AppErrors whose details.fields lists each rejected field:
//
//	var req LoginRequest
//	if err := validation.BindJSON(c, &req); err != nil {
//	    server.Fail(c, err)
//	    return
//	}
package validation
