package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/go-playground/validator.v9"
)

func TestPathSegmentValidator(t *testing.T) {
	validate := validator.New()
	_ = validate.RegisterValidation(PathSegmentValidatorTag, PathSegmentValidator)
	type args struct {
		segment string
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{
			name: "must not have illegal chars",
			args: args{
				"my?app",
			},
			wantErr: true,
		},
		{
			name: "must not have '#'",
			args: args{
				"my#app",
			},
			wantErr: true,
		},
		{
			name: "must not have whitespace",
			args: args{
				"my app",
			},
			wantErr: true,
		},
		{
			name: "must not be '..'",
			args: args{
				"..",
			},
			wantErr: true,
		},
		{
			name: "must not be '.'",
			args: args{
				".",
			},
			wantErr: true,
		},
		{
			name: "must not be empty",
			args: args{
				"",
			},
			wantErr: true,
		},
		{
			name: "should work",
			args: args{
				"my-little_app.v2",
			},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Var(tt.args.segment, PathSegmentValidatorTag)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
