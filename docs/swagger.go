package docs

import "github.com/swaggo/swag"

// @title           TaskFlow API
// @version         1.0
// @description     Project-task tracker: projects, per-status boards, tasks and notifications.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token

// @tag.name Users
// @tag.description Registration and login

// @tag.name Projects
// @tag.description Project and membership management

// @tag.name Boards
// @tag.description Per-status board operations

// @tag.name Tasks
// @tag.description Task operations and status changes

// @tag.name Notifications
// @tag.description Delta polling, listing and read-state

const docTemplate = `{
    "schemes": ["http"],
    "swagger": "2.0",
    "info": {
        "title": "TaskFlow API",
        "version": "1.0"
    },
    "host": "localhost:8080",
    "basePath": "/",
    "paths": {}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "TaskFlow API",
	Description:      "Project-task tracker API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
