// Package config loads outlet.json and applies OUTLET_* environment
// overrides.
//
// # Configuration File Structure
//
//	{
//	  "routes": "routes.yaml",
//	  "logLevel": "info",
//	  "router": {
//	    "extraParams": "query",
//	    "policy": "supersede",
//	    "navigationTimeout": "5s"
//	  },
//	  "link": {
//	    "prefix": ".",
//	    "activeClass": "link-active"
//	  },
//	  "server": {
//	    "addr": "localhost:3000",
//	    "historyPath": "/ws",
//	    "shutdownTimeout": "10s"
//	  },
//	  "metrics": {
//	    "namespace": "outlet",
//	    "path": "/metrics"
//	  },
//	  "s3": {
//	    "region": "eu-west-1"
//	  }
//	}
//
// Environment variables win over the file, e.g. OUTLET_ROUTER_POLICY=queue
// or OUTLET_ROUTES=s3://bucket/routes.json.
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := router.New(cfg.RouterOptions()...)
package config
