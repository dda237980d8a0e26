// Package http implements the HTTP handlers of the dashboard API.
//
// Handlers stay thin: they parse and validate query parameters, call the
// service layer and format the response. Every successful data response
// uses the same envelope:
//
//	{"status": "success", "data": ..., "count": n}
//
// Failures are written as RFC 7807 problem documents through
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "year_to must not be before year_from",
//	    "instance": "/api/data/summary"
//	}
//
// Filter parameters shared by the data routes:
//
//	market, country, status   repeated or comma-separated values
//	year_from, year_to        inclusive founding-year bounds
//	min_funding               minimum total funding in USD
//	limit                     result size for ranked and row listings
package http
