package main

import "github.com/openappconfig/openappconfig/app/cmd"

func main() {
	cmd.Execute()
}

// @title OpenAppConfig API
// @version 0.0.1
// @description A versioned, schema-validated JSON configuration store

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:3000
// @BasePath /
