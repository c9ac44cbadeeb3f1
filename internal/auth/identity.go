package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

var ErrNewPasswordRequired = errors.New("new password required")

// IdentityError is a sign-in or sign-up rejection. Reason is safe to show to the user.
type IdentityError struct {
	Code   string
	Reason string
	Err    error
}

func (e *IdentityError) Error() string { return e.Reason }

func (e *IdentityError) Unwrap() error { return e.Err }

type SignUpAttributes struct {
	Name  string
	Phone string
}

type SignUpResult struct {
	UserSub   string
	Confirmed bool
	// Where the confirmation code went, e.g. "a***@x.com".
	Destination string
}

type SignInResult struct {
	IDToken  string
	Username string
}

// cognitoAPI is the part of the Cognito client the app calls.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
}

// CognitoClient signs users up and in against a Cognito user pool app client.
type CognitoClient struct {
	api      cognitoAPI
	clientID string
}

// NewCognitoClient builds a client for a public app client (no secret, no AWS credentials).
func NewCognitoClient(ctx context.Context, region, clientID string) (*CognitoClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &CognitoClient{api: cip.NewFromConfig(cfg), clientID: clientID}, nil
}

func (c *CognitoClient) SignUp(ctx context.Context, email, password string, attrs SignUpAttributes) (*SignUpResult, error) {
	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("phone_number"), Value: aws.String(attrs.Phone)},
			{Name: aws.String("name"), Value: aws.String(attrs.Name)},
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return nil, identityError(err)
	}

	res := &SignUpResult{
		UserSub:   aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}
	if out.CodeDeliveryDetails != nil {
		res.Destination = aws.ToString(out.CodeDeliveryDetails.Destination)
	}
	return res, nil
}

// SignIn authenticates with USER_PASSWORD_AUTH and resolves the username from the
// email claim of the returned ID token.
func (c *CognitoClient) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, identityError(err)
	}

	if out.ChallengeName == types.ChallengeNameTypeNewPasswordRequired {
		return nil, &IdentityError{
			Code:   "NewPasswordRequired",
			Reason: "A new password is required for this account. Reset it with your administrator and sign in again.",
			Err:    ErrNewPasswordRequired,
		}
	}
	if out.AuthenticationResult == nil || aws.ToString(out.AuthenticationResult.IdToken) == "" {
		return nil, &IdentityError{
			Code:   "UnsupportedChallenge",
			Reason: fmt.Sprintf("Sign in needs an unsupported step (%s).", out.ChallengeName),
		}
	}

	idToken := aws.ToString(out.AuthenticationResult.IdToken)
	username, err := UsernameFromToken(idToken)
	if err != nil {
		return nil, &IdentityError{
			Code:   "InvalidToken",
			Reason: "The identity provider returned a token without an email address.",
			Err:    err,
		}
	}
	return &SignInResult{IDToken: idToken, Username: username}, nil
}

func identityError(err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		reason := ae.ErrorMessage()
		if reason == "" {
			reason = ae.ErrorCode()
		}
		return &IdentityError{Code: ae.ErrorCode(), Reason: reason, Err: err}
	}
	return &IdentityError{
		Code:   "RequestFailed",
		Reason: "Could not reach the identity provider. Please try again.",
		Err:    err,
	}
}
