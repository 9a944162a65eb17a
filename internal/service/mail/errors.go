package mail

import "errors"

var ErrMailNotSent = errors.New("error while sending mail")
