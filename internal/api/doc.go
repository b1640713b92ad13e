// Package api implements the HTTP handlers for the video service: video
// resource CRUD, the start/stop live control endpoints, and the webhook that
// receives channel lifecycle notifications from the external encoding
// service.
package api
