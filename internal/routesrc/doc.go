// Package routesrc loads route config trees from files and object storage.
//
// A source is named by a URI:
//
//	routes.json                  JSON file
//	config/routes.yaml           YAML file (.yaml or .yml)
//	s3://bucket/path/routes.json object in S3, format by key extension
//
// Files hold either a bare list of routes or an object with a "routes"
// key. Unknown fields are rejected so typos surface at load time.
package routesrc
